// Package store defines the entity store used by the lifecycle engine.
// Every read and write happens inside a transaction obtained from Store.WithTx.
package store

import (
	"context"
	"errors"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPhoneTaken is returned when a lead write would duplicate a phone number.
	ErrPhoneTaken = errors.New("phone already registered")
)

// Store opens transactions. fn's error rolls the transaction back and is returned as is.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is one atomic unit of work.
type Tx interface {
	LeadStore
	AppointmentStore
	ActionStore
	DuplicateStore
	PersonnelStore
	UserStore
	DispatchStore

	// Savepoint runs fn in a nested unit that can fail without aborting the outer one.
	Savepoint(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type LeadStore interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	// GetLeadForUpdate locks the lead row until the transaction ends.
	GetLeadForUpdate(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	FindLeadByPhone(ctx context.Context, phone string) (domain.Lead, error)
	FindLeadByEmail(ctx context.Context, email string) (domain.Lead, error)
	// FindLeadsByName matches case-insensitively.
	FindLeadsByName(ctx context.Context, name string) ([]domain.Lead, error)
	ListLeadsByMedium(ctx context.Context, media []string, onlyNonOPC bool) ([]domain.Lead, error)
	InsertLead(ctx context.Context, lead domain.Lead) error
	UpdateLead(ctx context.Context, lead domain.Lead) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
}

type AppointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	// ListAppointmentsByLead returns the most recent appointment first.
	ListAppointmentsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Appointment, error)
	CountAppointmentsByLead(ctx context.Context, leadID uuid.UUID) (int, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) error
	UpdateAppointment(ctx context.Context, appt domain.Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	DeleteAppointmentsByLead(ctx context.Context, leadID uuid.UUID) error
}

type ActionStore interface {
	// InsertAction assigns Seq and returns the stored action.
	InsertAction(ctx context.Context, action domain.Action) (domain.Action, error)
	// ListActionsByLead and ListActionsByAppointment return newest first.
	ListActionsByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Action, error)
	ListActionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]domain.Action, error)
	DeleteActionsByLead(ctx context.Context, leadID uuid.UUID) error
}

// DuplicateFilter narrows ListDuplicates. A zero Limit means no limit.
type DuplicateFilter struct {
	Status *domain.DuplicateStatus
	Limit  int
}

type DuplicateStore interface {
	GetDuplicate(ctx context.Context, id uuid.UUID) (domain.LeadDuplicate, error)
	GetDuplicateForUpdate(ctx context.Context, id uuid.UUID) (domain.LeadDuplicate, error)
	// ListDuplicates returns the newest import first.
	ListDuplicates(ctx context.Context, filter DuplicateFilter) ([]domain.LeadDuplicate, error)
	InsertDuplicate(ctx context.Context, dup domain.LeadDuplicate) error
	UpdateDuplicate(ctx context.Context, dup domain.LeadDuplicate) error
	// DetachDuplicates clears the original-lead reference of every duplicate of leadID.
	DetachDuplicates(ctx context.Context, leadID uuid.UUID) error
}

type PersonnelStore interface {
	GetPersonnel(ctx context.Context, id uuid.UUID) (domain.OPCPersonnel, error)
	// FindPersonnelByName matches case-insensitively.
	FindPersonnelByName(ctx context.Context, name string) (domain.OPCPersonnel, error)
	ListPersonnel(ctx context.Context, role *domain.PersonnelRole) ([]domain.OPCPersonnel, error)
	InsertPersonnel(ctx context.Context, p domain.OPCPersonnel) error
	UpdatePersonnel(ctx context.Context, p domain.OPCPersonnel) error
	// DeletePersonnel also clears references held by subordinates, leads and appointments.
	DeletePersonnel(ctx context.Context, id uuid.UUID) error
	CountSubordinates(ctx context.Context, supervisorID uuid.UUID) (int, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	// ListActiveUsers is ordered by username.
	ListActiveUsers(ctx context.Context) ([]domain.User, error)
}

type DispatchStore interface {
	InsertDispatch(ctx context.Context, d domain.VisitDispatch) error
	HasSucceededDispatch(ctx context.Context, correlationID string) (bool, error)
	// ListDispatchesByAppointment returns the newest attempt first.
	ListDispatchesByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]domain.VisitDispatch, error)
}
