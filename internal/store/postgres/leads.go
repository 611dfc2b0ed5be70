package postgres

import (
	"context"
	"fmt"
	"strings"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, phone, name, email, project, medium, district, location, classification,
	notes, opc_notes, assigned_agent_id, captured_by_id, capture_supervisor_id, capture_date,
	is_opc_lead, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var classification string
	err := row.Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Email, &lead.Project, &lead.Medium, &lead.District,
		&lead.Location, &classification, &lead.Notes, &lead.OPCNotes, &lead.AssignedAgentID,
		&lead.CapturedByID, &lead.CaptureSupervisorID, &lead.CaptureDate, &lead.IsOPCLead,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	lead.Classification = domain.Classification(classification)
	return lead, err
}

func (t *tx) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(t.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return domain.Lead{}, notFoundOr(err, "get lead")
	}
	return lead, nil
}

func (t *tx) GetLeadForUpdate(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(t.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Lead{}, notFoundOr(err, "lock lead")
	}
	return lead, nil
}

func (t *tx) FindLeadByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	lead, err := scanLead(t.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone))
	if err != nil {
		return domain.Lead{}, notFoundOr(err, "find lead by phone")
	}
	return lead, nil
}

func (t *tx) FindLeadByEmail(ctx context.Context, email string) (domain.Lead, error) {
	lead, err := scanLead(t.q.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE lower(email) = lower($1) ORDER BY created_at, id LIMIT 1`,
		email))
	if err != nil {
		return domain.Lead{}, notFoundOr(err, "find lead by email")
	}
	return lead, nil
}

func (t *tx) FindLeadsByName(ctx context.Context, name string) ([]domain.Lead, error) {
	rows, err := t.q.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE lower(trim(name)) = lower(trim($1)) ORDER BY created_at, id`,
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to find leads by name: %w", err)
	}
	leads, err := collect(rows, scanLead)
	if err != nil {
		return nil, fmt.Errorf("failed to scan leads: %w", err)
	}
	return leads, nil
}

func (t *tx) ListLeadsByMedium(ctx context.Context, media []string, onlyNonOPC bool) ([]domain.Lead, error) {
	lowered := make([]string, len(media))
	for i, m := range media {
		lowered[i] = strings.ToLower(strings.TrimSpace(m))
	}
	rows, err := t.q.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		WHERE lower(trim(medium)) = ANY($1) AND (NOT $2 OR NOT is_opc_lead)
		ORDER BY created_at, id`,
		lowered, onlyNonOPC)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads by medium: %w", err)
	}
	leads, err := collect(rows, scanLead)
	if err != nil {
		return nil, fmt.Errorf("failed to scan leads: %w", err)
	}
	return leads, nil
}

func (t *tx) InsertLead(ctx context.Context, lead domain.Lead) error {
	_, err := t.q.Exec(ctx, `INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		lead.ID, lead.Phone, lead.Name, lead.Email, lead.Project, lead.Medium, lead.District,
		lead.Location, string(lead.Classification), lead.Notes, lead.OPCNotes, lead.AssignedAgentID,
		lead.CapturedByID, lead.CaptureSupervisorID, lead.CaptureDate, lead.IsOPCLead,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if isUniqueViolation(err, "leads_phone_key") {
		return store.ErrPhoneTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (t *tx) UpdateLead(ctx context.Context, lead domain.Lead) error {
	tag, err := t.q.Exec(ctx, `UPDATE leads SET
			phone = $2, name = $3, email = $4, project = $5, medium = $6, district = $7,
			location = $8, classification = $9, notes = $10, opc_notes = $11,
			assigned_agent_id = $12, captured_by_id = $13, capture_supervisor_id = $14,
			capture_date = $15, is_opc_lead = $16, updated_at = $17
		WHERE id = $1`,
		lead.ID, lead.Phone, lead.Name, lead.Email, lead.Project, lead.Medium, lead.District,
		lead.Location, string(lead.Classification), lead.Notes, lead.OPCNotes, lead.AssignedAgentID,
		lead.CapturedByID, lead.CaptureSupervisorID, lead.CaptureDate, lead.IsOPCLead, lead.UpdatedAt,
	)
	if isUniqueViolation(err, "leads_phone_key") {
		return store.ErrPhoneTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return requireRow(tag)
}

func (t *tx) DeleteLead(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return requireRow(tag)
}
