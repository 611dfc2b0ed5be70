package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WithRetry runs fn up to attempts times, sleeping attempt² × baseDelay between tries.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

// Connect opens the pool, retrying while the database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
