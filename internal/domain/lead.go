package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a prospective customer, unique by phone.
type Lead struct {
	ID                  uuid.UUID
	Phone               string
	Name                string
	Email               *string
	Project             *string
	Medium              *string
	District            *string
	Location            *string
	Classification      Classification
	Notes               *string
	OPCNotes            *string
	AssignedAgentID     *uuid.UUID
	CapturedByID        *uuid.UUID
	CaptureSupervisorID *uuid.UUID
	CaptureDate         *time.Time
	IsOPCLead           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RefreshOPCFlag marks the lead as OPC-captured once capturing personnel is known.
// The flag is never cleared here.
func (l *Lead) RefreshOPCFlag() {
	if l.CapturedByID != nil {
		l.IsOPCLead = true
	}
}

// LeadSnapshot is the set of fields an ingestion row submits for a lead.
type LeadSnapshot struct {
	Name           string
	Phone          string
	Email          *string
	Project        *string
	Medium         *string
	District       *string
	Location       *string
	Notes          *string
	OPCNotes       *string
	Classification *Classification
	CapturedByID   *uuid.UUID
	CaptureDate    *time.Time
}

// FillEmptyFrom copies snapshot values into fields that are currently empty and
// returns the names of the fields it filled. Populated fields are never overwritten.
func (l *Lead) FillEmptyFrom(s LeadSnapshot) []string {
	var filled []string
	fillString := func(name string, dst **string, src *string) {
		if isBlank(*dst) && !isBlank(src) {
			v := strings.TrimSpace(*src)
			*dst = &v
			filled = append(filled, name)
		}
	}

	if strings.TrimSpace(l.Name) == "" && strings.TrimSpace(s.Name) != "" {
		l.Name = strings.TrimSpace(s.Name)
		filled = append(filled, "name")
	}
	fillString("email", &l.Email, s.Email)
	fillString("project", &l.Project, s.Project)
	fillString("medium", &l.Medium, s.Medium)
	fillString("district", &l.District, s.District)
	fillString("location", &l.Location, s.Location)
	fillString("notes", &l.Notes, s.Notes)
	fillString("opc_notes", &l.OPCNotes, s.OPCNotes)

	if l.CapturedByID == nil && s.CapturedByID != nil {
		id := *s.CapturedByID
		l.CapturedByID = &id
		filled = append(filled, "captured_by")
	}
	if l.CaptureDate == nil && s.CaptureDate != nil {
		d := *s.CaptureDate
		l.CaptureDate = &d
		filled = append(filled, "capture_date")
	}

	l.RefreshOPCFlag()
	return filled
}

// OverwriteFrom applies every non-empty snapshot value, used by phone-keyed upserts.
func (l *Lead) OverwriteFrom(s LeadSnapshot) {
	set := func(dst **string, src *string) {
		if !isBlank(src) {
			v := strings.TrimSpace(*src)
			*dst = &v
		}
	}
	if strings.TrimSpace(s.Name) != "" {
		l.Name = strings.TrimSpace(s.Name)
	}
	set(&l.Email, s.Email)
	set(&l.Project, s.Project)
	set(&l.Medium, s.Medium)
	set(&l.District, s.District)
	set(&l.Location, s.Location)
	set(&l.Notes, s.Notes)
	set(&l.OPCNotes, s.OPCNotes)
	if s.Classification != nil {
		l.Classification = *s.Classification
	}
	if s.CapturedByID != nil {
		id := *s.CapturedByID
		l.CapturedByID = &id
	}
	if s.CaptureDate != nil {
		d := *s.CaptureDate
		l.CaptureDate = &d
	}
	l.RefreshOPCFlag()
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// StringValue dereferences an optional string.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
