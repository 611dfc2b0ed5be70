package postgres

import (
	"context"
	"fmt"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, lead_id, scheduling_agent_id, attending_agent_id, attending_personnel_id,
	scheduled_at, place, notes, status, ever_confirmed, created_at, updated_at`

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var appt domain.Appointment
	var status string
	err := row.Scan(
		&appt.ID, &appt.LeadID, &appt.SchedulingAgentID, &appt.AttendingAgentID,
		&appt.AttendingPersonnelID, &appt.ScheduledAt, &appt.Place, &appt.Notes, &status,
		&appt.EverConfirmed, &appt.CreatedAt, &appt.UpdatedAt,
	)
	appt.Status = domain.AppointmentStatus(status)
	return appt, err
}

func (t *tx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, err := scanAppointment(t.q.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return domain.Appointment{}, notFoundOr(err, "get appointment")
	}
	return appt, nil
}

func (t *tx) ListAppointmentsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Appointment, error) {
	rows, err := t.q.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE lead_id = $1 ORDER BY scheduled_at DESC, created_at DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	appts, err := collect(rows, scanAppointment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointments: %w", err)
	}
	return appts, nil
}

func (t *tx) CountAppointmentsByLead(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	if err := t.q.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE lead_id = $1`, leadID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (t *tx) InsertAppointment(ctx context.Context, appt domain.Appointment) error {
	_, err := t.q.Exec(ctx, `INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		appt.ID, appt.LeadID, appt.SchedulingAgentID, appt.AttendingAgentID, appt.AttendingPersonnelID,
		appt.ScheduledAt, appt.Place, appt.Notes, string(appt.Status), appt.EverConfirmed,
		appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointment never clears ever_confirmed once it is set.
func (t *tx) UpdateAppointment(ctx context.Context, appt domain.Appointment) error {
	tag, err := t.q.Exec(ctx, `UPDATE appointments SET
			scheduling_agent_id = $2, attending_agent_id = $3, attending_personnel_id = $4,
			scheduled_at = $5, place = $6, notes = $7, status = $8,
			ever_confirmed = ever_confirmed OR $9, updated_at = $10
		WHERE id = $1`,
		appt.ID, appt.SchedulingAgentID, appt.AttendingAgentID, appt.AttendingPersonnelID,
		appt.ScheduledAt, appt.Place, appt.Notes, string(appt.Status), appt.EverConfirmed, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return requireRow(tag)
}

func (t *tx) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireRow(tag)
}

func (t *tx) DeleteAppointmentsByLead(ctx context.Context, leadID uuid.UUID) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM appointments WHERE lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to delete appointments of lead: %w", err)
	}
	return nil
}
