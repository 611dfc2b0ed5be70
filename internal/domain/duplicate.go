package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DuplicateStatus string

const (
	DuplicatePending DuplicateStatus = "pending"
	DuplicateMerged  DuplicateStatus = "merged"
	DuplicateIgnored DuplicateStatus = "ignored"
)

func ParseDuplicateStatus(value string) (DuplicateStatus, error) {
	switch DuplicateStatus(value) {
	case DuplicatePending, DuplicateMerged, DuplicateIgnored:
		return DuplicateStatus(value), nil
	}
	return "", fmt.Errorf("unknown duplicate status %q", value)
}

// MatchReason records which detection rule matched the original lead.
type MatchReason string

const (
	MatchPhone     MatchReason = "phone"
	MatchEmail     MatchReason = "email"
	MatchNamePhone MatchReason = "name_phone"
)

// LeadDuplicate quarantines an imported row that collided with an existing lead.
type LeadDuplicate struct {
	ID             uuid.UUID
	OriginalLeadID *uuid.UUID
	Snapshot       LeadSnapshot
	MatchReason    MatchReason
	Status         DuplicateStatus
	ImportBatchID  string
	ImportedAt     time.Time
	ResolvedAt     *time.Time
	ResolvedByID   *uuid.UUID
}

func (d LeadDuplicate) IsResolved() bool {
	return d.Status != DuplicatePending
}

// Resolve marks the duplicate terminal.
func (d *LeadDuplicate) Resolve(status DuplicateStatus, actor Actor, at time.Time) {
	d.Status = status
	d.ResolvedAt = &at
	d.ResolvedByID = actor.UserID
}
