package transport

import (
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

type ListDuplicatesRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=pending merged ignored"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type SnapshotResponse struct {
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

type DuplicateResponse struct {
	ID             uuid.UUID        `json:"id"`
	OriginalLeadID *uuid.UUID       `json:"originalLeadId,omitempty"`
	Snapshot       SnapshotResponse `json:"snapshot"`
	MatchReason    string           `json:"matchReason"`
	Status         string           `json:"status"`
	ImportBatchID  string           `json:"importBatchId,omitempty"`
	ImportedAt     time.Time        `json:"importedAt"`
	ResolvedAt     *time.Time       `json:"resolvedAt,omitempty"`
	ResolvedByID   *uuid.UUID       `json:"resolvedById,omitempty"`
}

type DuplicateListResponse struct {
	Items []DuplicateResponse `json:"items"`
}

// MergeResponse lists the lead fields the merge filled. FilledFields is empty
// when the duplicate was already resolved.
type MergeResponse struct {
	Duplicate    DuplicateResponse `json:"duplicate"`
	FilledFields []string          `json:"filledFields"`
}

func ToDuplicateResponse(d domain.LeadDuplicate) DuplicateResponse {
	s := d.Snapshot
	snap := SnapshotResponse{
		Name:         s.Name,
		Phone:        s.Phone,
		Email:        s.Email,
		Project:      s.Project,
		Medium:       s.Medium,
		District:     s.District,
		Location:     s.Location,
		Notes:        s.Notes,
		OPCNotes:     s.OPCNotes,
		CapturedByID: s.CapturedByID,
		CaptureDate:  s.CaptureDate,
	}
	if s.Classification != nil {
		c := string(*s.Classification)
		snap.Classification = &c
	}
	return DuplicateResponse{
		ID:             d.ID,
		OriginalLeadID: d.OriginalLeadID,
		Snapshot:       snap,
		MatchReason:    string(d.MatchReason),
		Status:         string(d.Status),
		ImportBatchID:  d.ImportBatchID,
		ImportedAt:     d.ImportedAt,
		ResolvedAt:     d.ResolvedAt,
		ResolvedByID:   d.ResolvedByID,
	}
}
