package postgres

import (
	"context"
	"fmt"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Active)
	return u, err
}

func (t *tx) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := scanUser(t.q.QueryRow(ctx,
		`SELECT id, username, full_name, email, active FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, notFoundOr(err, "get user")
	}
	return u, nil
}

func (t *tx) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := t.q.Query(ctx,
		`SELECT id, username, full_name, email, active FROM users WHERE active ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}
