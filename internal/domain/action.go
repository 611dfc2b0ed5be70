package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind tags an audit entry.
type ActionKind string

const (
	ActionLeadCreated        ActionKind = "lead_created"
	ActionLeadUpdated        ActionKind = "lead_updated"
	ActionLeadDeleted        ActionKind = "lead_deleted"
	ActionAppointmentCreated ActionKind = "appointment_created"
	ActionAppointmentUpdated ActionKind = "appointment_updated"
	ActionAppointmentDeleted ActionKind = "appointment_deleted"
)

// Action is an immutable audit entry. Lead, appointment and actor references are
// weak: the referenced rows may no longer exist.
type Action struct {
	ID            uuid.UUID
	Seq           int64
	LeadID        *uuid.UUID
	AppointmentID *uuid.UUID
	ActorID       *uuid.UUID
	ActorName     string
	Kind          ActionKind
	Detail        string
	CreatedAt     time.Time
}

// SystemActorName is recorded when a mutation has no authenticated requester.
const SystemActorName = "system"

// Actor is the requester a mutation is attributed to. The zero value is the system.
type Actor struct {
	UserID *uuid.UUID
	Name   string
}

// SystemActor returns the actor used for mutations without a requester.
func SystemActor() Actor {
	return Actor{}
}

// UserActor attributes a mutation to an authenticated user.
func UserActor(id uuid.UUID, name string) Actor {
	return Actor{UserID: &id, Name: name}
}

func (a Actor) IsSystem() bool {
	return a.UserID == nil
}

// DisplayName is the name written into audit details.
func (a Actor) DisplayName() string {
	if a.IsSystem() {
		return SystemActorName
	}
	if a.Name != "" {
		return a.Name
	}
	return a.UserID.String()
}
