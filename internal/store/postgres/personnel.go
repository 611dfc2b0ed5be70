package postgres

import (
	"context"
	"fmt"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const personnelColumns = `id, name, role, supervisor_id, user_id, weekly_schedule, active, created_at, updated_at`

func scanPersonnel(row pgx.Row) (domain.OPCPersonnel, error) {
	var p domain.OPCPersonnel
	var role string
	var schedule []byte
	err := row.Scan(&p.ID, &p.Name, &role, &p.SupervisorID, &p.UserID, &schedule, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	p.Role = domain.PersonnelRole(role)
	p.WeeklySchedule = schedule
	return p, err
}

func scheduleArg(p domain.OPCPersonnel) any {
	if len(p.WeeklySchedule) == 0 {
		return nil
	}
	return []byte(p.WeeklySchedule)
}

func (t *tx) GetPersonnel(ctx context.Context, id uuid.UUID) (domain.OPCPersonnel, error) {
	p, err := scanPersonnel(t.q.QueryRow(ctx, `SELECT `+personnelColumns+` FROM opc_personnel WHERE id = $1`, id))
	if err != nil {
		return domain.OPCPersonnel{}, notFoundOr(err, "get personnel")
	}
	return p, nil
}

func (t *tx) FindPersonnelByName(ctx context.Context, name string) (domain.OPCPersonnel, error) {
	p, err := scanPersonnel(t.q.QueryRow(ctx, `SELECT `+personnelColumns+` FROM opc_personnel
		WHERE lower(trim(name)) = lower(trim($1)) ORDER BY created_at LIMIT 1`, name))
	if err != nil {
		return domain.OPCPersonnel{}, notFoundOr(err, "find personnel by name")
	}
	return p, nil
}

func (t *tx) ListPersonnel(ctx context.Context, role *domain.PersonnelRole) ([]domain.OPCPersonnel, error) {
	var roleArg *string
	if role != nil {
		r := string(*role)
		roleArg = &r
	}
	rows, err := t.q.Query(ctx, `SELECT `+personnelColumns+` FROM opc_personnel
		WHERE ($1::text IS NULL OR role = $1) ORDER BY name`, roleArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}
	out, err := collect(rows, scanPersonnel)
	if err != nil {
		return nil, fmt.Errorf("failed to scan personnel: %w", err)
	}
	return out, nil
}

func (t *tx) InsertPersonnel(ctx context.Context, p domain.OPCPersonnel) error {
	_, err := t.q.Exec(ctx, `INSERT INTO opc_personnel (`+personnelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, string(p.Role), p.SupervisorID, p.UserID, scheduleArg(p), p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert personnel: %w", err)
	}
	return nil
}

func (t *tx) UpdatePersonnel(ctx context.Context, p domain.OPCPersonnel) error {
	tag, err := t.q.Exec(ctx, `UPDATE opc_personnel SET
			name = $2, role = $3, supervisor_id = $4, user_id = $5, weekly_schedule = $6,
			active = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.Name, string(p.Role), p.SupervisorID, p.UserID, scheduleArg(p), p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update personnel: %w", err)
	}
	return requireRow(tag)
}

// DeletePersonnel relies on the ON DELETE SET NULL references in the schema.
func (t *tx) DeletePersonnel(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM opc_personnel WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete personnel: %w", err)
	}
	return requireRow(tag)
}

func (t *tx) CountSubordinates(ctx context.Context, supervisorID uuid.UUID) (int, error) {
	var count int
	if err := t.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM opc_personnel WHERE supervisor_id = $1`, supervisorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subordinates: %w", err)
	}
	return count, nil
}
