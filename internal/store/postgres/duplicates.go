package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const duplicateColumns = `id, original_lead_id, snapshot, match_reason, status, import_batch_id,
	imported_at, resolved_at, resolved_by_id`

// snapshotDoc is the JSONB shape of a quarantined row.
type snapshotDoc struct {
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Email          *string    `json:"email,omitempty"`
	Project        *string    `json:"project,omitempty"`
	Medium         *string    `json:"medium,omitempty"`
	District       *string    `json:"district,omitempty"`
	Location       *string    `json:"location,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	OPCNotes       *string    `json:"opcNotes,omitempty"`
	Classification *string    `json:"classification,omitempty"`
	CapturedByID   *uuid.UUID `json:"capturedById,omitempty"`
	CaptureDate    *time.Time `json:"captureDate,omitempty"`
}

func encodeSnapshot(s domain.LeadSnapshot) ([]byte, error) {
	doc := snapshotDoc{
		Name: s.Name, Phone: s.Phone, Email: s.Email, Project: s.Project, Medium: s.Medium,
		District: s.District, Location: s.Location, Notes: s.Notes, OPCNotes: s.OPCNotes,
		CapturedByID: s.CapturedByID, CaptureDate: s.CaptureDate,
	}
	if s.Classification != nil {
		c := string(*s.Classification)
		doc.Classification = &c
	}
	return json.Marshal(doc)
}

func decodeSnapshot(raw []byte) (domain.LeadSnapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.LeadSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s := domain.LeadSnapshot{
		Name: doc.Name, Phone: doc.Phone, Email: doc.Email, Project: doc.Project, Medium: doc.Medium,
		District: doc.District, Location: doc.Location, Notes: doc.Notes, OPCNotes: doc.OPCNotes,
		CapturedByID: doc.CapturedByID, CaptureDate: doc.CaptureDate,
	}
	if doc.Classification != nil {
		c := domain.Classification(*doc.Classification)
		s.Classification = &c
	}
	return s, nil
}

func scanDuplicate(row pgx.Row) (domain.LeadDuplicate, error) {
	var d domain.LeadDuplicate
	var raw []byte
	var reason, status string
	if err := row.Scan(&d.ID, &d.OriginalLeadID, &raw, &reason, &status, &d.ImportBatchID,
		&d.ImportedAt, &d.ResolvedAt, &d.ResolvedByID); err != nil {
		return domain.LeadDuplicate{}, err
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return domain.LeadDuplicate{}, err
	}
	d.Snapshot = snapshot
	d.MatchReason = domain.MatchReason(reason)
	d.Status = domain.DuplicateStatus(status)
	return d, nil
}

func (t *tx) GetDuplicate(ctx context.Context, id uuid.UUID) (domain.LeadDuplicate, error) {
	d, err := scanDuplicate(t.q.QueryRow(ctx, `SELECT `+duplicateColumns+` FROM lead_duplicates WHERE id = $1`, id))
	if err != nil {
		return domain.LeadDuplicate{}, notFoundOr(err, "get duplicate")
	}
	return d, nil
}

func (t *tx) GetDuplicateForUpdate(ctx context.Context, id uuid.UUID) (domain.LeadDuplicate, error) {
	d, err := scanDuplicate(t.q.QueryRow(ctx,
		`SELECT `+duplicateColumns+` FROM lead_duplicates WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.LeadDuplicate{}, notFoundOr(err, "lock duplicate")
	}
	return d, nil
}

func (t *tx) ListDuplicates(ctx context.Context, filter store.DuplicateFilter) ([]domain.LeadDuplicate, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}
	rows, err := t.q.Query(ctx, `SELECT `+duplicateColumns+` FROM lead_duplicates
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY imported_at DESC
		LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicates: %w", err)
	}
	dups, err := collect(rows, scanDuplicate)
	if err != nil {
		return nil, fmt.Errorf("failed to scan duplicates: %w", err)
	}
	return dups, nil
}

func (t *tx) InsertDuplicate(ctx context.Context, dup domain.LeadDuplicate) error {
	snapshot, err := encodeSnapshot(dup.Snapshot)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `INSERT INTO lead_duplicates (`+duplicateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		dup.ID, dup.OriginalLeadID, snapshot, string(dup.MatchReason), string(dup.Status),
		dup.ImportBatchID, dup.ImportedAt, dup.ResolvedAt, dup.ResolvedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert duplicate: %w", err)
	}
	return nil
}

func (t *tx) UpdateDuplicate(ctx context.Context, dup domain.LeadDuplicate) error {
	tag, err := t.q.Exec(ctx, `UPDATE lead_duplicates SET
			original_lead_id = $2, status = $3, resolved_at = $4, resolved_by_id = $5
		WHERE id = $1`,
		dup.ID, dup.OriginalLeadID, string(dup.Status), dup.ResolvedAt, dup.ResolvedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to update duplicate: %w", err)
	}
	return requireRow(tag)
}

func (t *tx) DetachDuplicates(ctx context.Context, leadID uuid.UUID) error {
	if _, err := t.q.Exec(ctx,
		`UPDATE lead_duplicates SET original_lead_id = NULL WHERE original_lead_id = $1`, leadID); err != nil {
		return fmt.Errorf("failed to detach duplicates: %w", err)
	}
	return nil
}
