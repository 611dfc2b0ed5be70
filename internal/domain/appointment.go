package domain

import (
	"fmt"
	"time"

	"opc_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// AppointmentStatus is the state of a sales visit.
type AppointmentStatus string

const (
	AppointmentPending     AppointmentStatus = "pending"
	AppointmentConfirmed   AppointmentStatus = "confirmed"
	AppointmentDone        AppointmentStatus = "done"
	AppointmentCancelled   AppointmentStatus = "cancelled"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

var appointmentStatusByFold = map[string]AppointmentStatus{
	"pending":      AppointmentPending,
	"pendiente":    AppointmentPending,
	"confirmed":    AppointmentConfirmed,
	"confirmada":   AppointmentConfirmed,
	"done":         AppointmentDone,
	"realizada":    AppointmentDone,
	"cancelled":    AppointmentCancelled,
	"canceled":     AppointmentCancelled,
	"cancelada":    AppointmentCancelled,
	"rescheduled":  AppointmentRescheduled,
	"reprogramada": AppointmentRescheduled,
}

// ParseAppointmentStatus accepts the English values and the Spanish labels.
func ParseAppointmentStatus(value string) (AppointmentStatus, error) {
	if s, ok := appointmentStatusByFold[sanitize.Fold(value)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", value)
}

// Label is the Spanish text shown to agents and written in audit details.
func (s AppointmentStatus) Label() string {
	switch s {
	case AppointmentPending:
		return "Pendiente"
	case AppointmentConfirmed:
		return "Confirmada"
	case AppointmentDone:
		return "Realizada"
	case AppointmentCancelled:
		return "Cancelada"
	case AppointmentRescheduled:
		return "Reprogramada"
	default:
		return string(s)
	}
}

// Appointment is a scheduled or completed sales visit for one lead.
type Appointment struct {
	ID                   uuid.UUID
	LeadID               uuid.UUID
	SchedulingAgentID    *uuid.UUID
	AttendingAgentID     *uuid.UUID
	AttendingPersonnelID *uuid.UUID
	ScheduledAt          time.Time
	Place                string
	Notes                *string
	Status               AppointmentStatus
	EverConfirmed        bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SetStatus changes the status. EverConfirmed latches once the visit is confirmed
// and is never cleared.
func (a *Appointment) SetStatus(status AppointmentStatus) {
	a.Status = status
	if status == AppointmentConfirmed {
		a.EverConfirmed = true
	}
}

// CorrelationID identifies this visit in the external sales system.
func (a Appointment) CorrelationID() string {
	return VisitCorrelationID(a.ID)
}

// VisitCorrelationID is the external id of the visit held by appointment id.
func VisitCorrelationID(id uuid.UUID) string {
	return "CRM-" + id.String()
}
