// Package postgres implements store.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"opc_crm_backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store opens read-committed transactions on the pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = pgTx.Rollback(ctx) }()

	if err := fn(ctx, &tx{q: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	q pgx.Tx
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*tx)(nil)
)

// Savepoint maps onto a SAVEPOINT through pgx's nested transactions.
func (t *tx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	nested, err := t.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(ctx, &tx{q: nested}); err != nil {
		_ = nested.Rollback(ctx)
		return err
	}
	if err := nested.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func requireRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
