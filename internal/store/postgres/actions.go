package postgres

import (
	"context"
	"fmt"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const actionColumns = `id, seq, lead_id, appointment_id, actor_id, actor_name, kind, detail, created_at`

func scanAction(row pgx.Row) (domain.Action, error) {
	var a domain.Action
	var kind string
	err := row.Scan(&a.ID, &a.Seq, &a.LeadID, &a.AppointmentID, &a.ActorID, &a.ActorName, &kind, &a.Detail, &a.CreatedAt)
	a.Kind = domain.ActionKind(kind)
	return a, err
}

func (t *tx) InsertAction(ctx context.Context, action domain.Action) (domain.Action, error) {
	err := t.q.QueryRow(ctx, `INSERT INTO actions (id, lead_id, appointment_id, actor_id, actor_name, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`,
		action.ID, action.LeadID, action.AppointmentID, action.ActorID, action.ActorName,
		string(action.Kind), action.Detail, action.CreatedAt,
	).Scan(&action.Seq)
	if err != nil {
		return domain.Action{}, fmt.Errorf("failed to insert action: %w", err)
	}
	return action, nil
}

func (t *tx) ListActionsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Action, error) {
	return t.listActions(ctx, `lead_id = $1`, leadID)
}

func (t *tx) ListActionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]domain.Action, error) {
	return t.listActions(ctx, `appointment_id = $1`, appointmentID)
}

func (t *tx) listActions(ctx context.Context, where string, id uuid.UUID) ([]domain.Action, error) {
	rows, err := t.q.Query(ctx, `SELECT `+actionColumns+` FROM actions WHERE `+where+`
		ORDER BY created_at DESC, seq DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	actions, err := collect(rows, scanAction)
	if err != nil {
		return nil, fmt.Errorf("failed to scan actions: %w", err)
	}
	return actions, nil
}

func (t *tx) DeleteActionsByLead(ctx context.Context, leadID uuid.UUID) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM actions WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to delete actions of lead: %w", err)
	}
	return nil
}
