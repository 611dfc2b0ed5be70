package transport

import (
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/httpkit"

	"github.com/google/uuid"
)

// CreateLeadRequest is the request body for creating a lead
type CreateLeadRequest struct {
	Phone               string     `json:"phone" validate:"required,min=6,max=32"`
	Name                string     `json:"name" validate:"required,min=1,max=200"`
	Email               *string    `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Project             *string    `json:"project,omitempty" validate:"omitempty,max=200"`
	Medium              *string    `json:"medium,omitempty" validate:"omitempty,max=100"`
	District            *string    `json:"district,omitempty" validate:"omitempty,max=100"`
	Location            *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	Classification      *string    `json:"classification,omitempty" validate:"omitempty,classification"`
	Notes               *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	OPCNotes            *string    `json:"opcNotes,omitempty" validate:"omitempty,max=4000"`
	AssignedAgentID     *uuid.UUID `json:"assignedAgentId,omitempty"`
	CapturedByID        *uuid.UUID `json:"capturedById,omitempty"`
	CaptureSupervisorID *uuid.UUID `json:"captureSupervisorId,omitempty"`
	CaptureDate         *time.Time `json:"captureDate,omitempty"`
}

// UpdateLeadRequest is the PATCH body. Absent fields are left unchanged; an empty
// string clears an optional text field.
type UpdateLeadRequest struct {
	Phone               *string              `json:"phone,omitempty" validate:"omitempty,min=6,max=32"`
	Name                *string              `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email               *string              `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Project             *string              `json:"project,omitempty" validate:"omitempty,max=200"`
	Medium              *string              `json:"medium,omitempty" validate:"omitempty,max=100"`
	District            *string              `json:"district,omitempty" validate:"omitempty,max=100"`
	Location            *string              `json:"location,omitempty" validate:"omitempty,max=200"`
	Classification      *string              `json:"classification,omitempty" validate:"omitempty,classification"`
	Notes               *string              `json:"notes,omitempty" validate:"omitempty,max=4000"`
	OPCNotes            *string              `json:"opcNotes,omitempty" validate:"omitempty,max=4000"`
	AssignedAgentID     httpkit.OptionalUUID `json:"assignedAgentId,omitempty" validate:"-"`
	CapturedByID        httpkit.OptionalUUID `json:"capturedById,omitempty" validate:"-"`
	CaptureSupervisorID httpkit.OptionalUUID `json:"captureSupervisorId,omitempty" validate:"-"`
	CaptureDate         *time.Time           `json:"captureDate,omitempty"`
}

// ReassignLeadsRequest sets the assigned agent of several leads at once.
// A nil agent unassigns them.
type ReassignLeadsRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=500,dive,required"`
	AgentID *uuid.UUID  `json:"agentId"`
}

type ReassignLeadsResponse struct {
	Updated int `json:"updated"`
}

type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Phone               string     `json:"phone"`
	Name                string     `json:"name"`
	Email               *string    `json:"email,omitempty"`
	Project             *string    `json:"project,omitempty"`
	Medium              *string    `json:"medium,omitempty"`
	District            *string    `json:"district,omitempty"`
	Location            *string    `json:"location,omitempty"`
	Classification      string     `json:"classification"`
	Notes               *string    `json:"notes,omitempty"`
	OPCNotes            *string    `json:"opcNotes,omitempty"`
	AssignedAgentID     *uuid.UUID `json:"assignedAgentId,omitempty"`
	CapturedByID        *uuid.UUID `json:"capturedById,omitempty"`
	CaptureSupervisorID *uuid.UUID `json:"captureSupervisorId,omitempty"`
	CaptureDate         *time.Time `json:"captureDate,omitempty"`
	IsOPCLead           bool       `json:"isOpcLead"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                  l.ID,
		Phone:               l.Phone,
		Name:                l.Name,
		Email:               l.Email,
		Project:             l.Project,
		Medium:              l.Medium,
		District:            l.District,
		Location:            l.Location,
		Classification:      string(l.Classification),
		Notes:               l.Notes,
		OPCNotes:            l.OPCNotes,
		AssignedAgentID:     l.AssignedAgentID,
		CapturedByID:        l.CapturedByID,
		CaptureSupervisorID: l.CaptureSupervisorID,
		CaptureDate:         l.CaptureDate,
		IsOPCLead:           l.IsOPCLead,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}
