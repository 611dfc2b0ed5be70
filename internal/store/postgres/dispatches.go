package postgres

import (
	"context"
	"fmt"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func scanDispatch(row pgx.Row) (domain.VisitDispatch, error) {
	var d domain.VisitDispatch
	var trigger, status string
	err := row.Scan(&d.ID, &d.AppointmentID, &d.CorrelationID, &trigger, &status, &d.ResponseCode, &d.Error, &d.CreatedAt)
	d.Trigger = domain.DispatchTrigger(trigger)
	d.Status = domain.DispatchStatus(status)
	return d, err
}

func (t *tx) InsertDispatch(ctx context.Context, d domain.VisitDispatch) error {
	_, err := t.q.Exec(ctx, `INSERT INTO visit_dispatches
			(id, appointment_id, correlation_id, trigger, status, response_code, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.AppointmentID, d.CorrelationID, string(d.Trigger), string(d.Status), d.ResponseCode, d.Error, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit dispatch: %w", err)
	}
	return nil
}

func (t *tx) HasSucceededDispatch(ctx context.Context, correlationID string) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM visit_dispatches WHERE correlation_id = $1 AND status = 'succeeded'
		)`, correlationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check visit dispatches: %w", err)
	}
	return exists, nil
}

func (t *tx) ListDispatchesByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]domain.VisitDispatch, error) {
	rows, err := t.q.Query(ctx, `SELECT id, appointment_id, correlation_id, trigger, status, response_code, error, created_at
		FROM visit_dispatches WHERE appointment_id = $1 ORDER BY created_at DESC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visit dispatches: %w", err)
	}
	out, err := collect(rows, scanDispatch)
	if err != nil {
		return nil, fmt.Errorf("failed to scan visit dispatches: %w", err)
	}
	return out, nil
}
