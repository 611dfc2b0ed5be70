package transport

import (
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/httpkit"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	LeadID               uuid.UUID  `json:"leadId" validate:"required"`
	ScheduledAt          time.Time  `json:"scheduledAt" validate:"required"`
	Place                string     `json:"place" validate:"max=200"`
	Notes                *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Status               *string    `json:"status,omitempty" validate:"omitempty,appointment_status"`
	SchedulingAgentID    *uuid.UUID `json:"schedulingAgentId,omitempty"`
	AttendingAgentID     *uuid.UUID `json:"attendingAgentId,omitempty"`
	AttendingPersonnelID *uuid.UUID `json:"attendingPersonnelId,omitempty"`
}

// UpdateAppointmentRequest is the PATCH body. Absent fields are left unchanged.
type UpdateAppointmentRequest struct {
	ScheduledAt          *time.Time           `json:"scheduledAt,omitempty"`
	Place                *string              `json:"place,omitempty" validate:"omitempty,max=200"`
	Notes                *string              `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Status               *string              `json:"status,omitempty" validate:"omitempty,appointment_status"`
	AttendingAgentID     httpkit.OptionalUUID `json:"attendingAgentId,omitempty" validate:"-"`
	AttendingPersonnelID httpkit.OptionalUUID `json:"attendingPersonnelId,omitempty" validate:"-"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,appointment_status"`
}

type AppointmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	LeadID               uuid.UUID  `json:"leadId"`
	SchedulingAgentID    *uuid.UUID `json:"schedulingAgentId,omitempty"`
	AttendingAgentID     *uuid.UUID `json:"attendingAgentId,omitempty"`
	AttendingPersonnelID *uuid.UUID `json:"attendingPersonnelId,omitempty"`
	ScheduledAt          time.Time  `json:"scheduledAt"`
	Place                string     `json:"place"`
	Notes                *string    `json:"notes,omitempty"`
	Status               string     `json:"status"`
	StatusLabel          string     `json:"statusLabel"`
	EverConfirmed        bool       `json:"everConfirmed"`
	LeadClassification   string     `json:"leadClassification"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Items []AppointmentResponse `json:"items"`
}

// ToAppointmentResponse includes the lead's classification after the change so
// clients can refresh the lead without a second request.
func ToAppointmentResponse(a domain.Appointment, lead domain.Lead) AppointmentResponse {
	return AppointmentResponse{
		ID:                   a.ID,
		LeadID:               a.LeadID,
		SchedulingAgentID:    a.SchedulingAgentID,
		AttendingAgentID:     a.AttendingAgentID,
		AttendingPersonnelID: a.AttendingPersonnelID,
		ScheduledAt:          a.ScheduledAt,
		Place:                a.Place,
		Notes:                a.Notes,
		Status:               string(a.Status),
		StatusLabel:          a.Status.Label(),
		EverConfirmed:        a.EverConfirmed,
		LeadClassification:   string(lead.Classification),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
