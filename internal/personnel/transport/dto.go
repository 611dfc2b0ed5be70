package transport

import (
	"encoding/json"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/httpkit"

	"github.com/google/uuid"
)

type CreatePersonnelRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Role           string          `json:"role" validate:"required,personnel_role"`
	SupervisorID   *uuid.UUID      `json:"supervisorId,omitempty"`
	UserID         *uuid.UUID      `json:"userId,omitempty"`
	WeeklySchedule json.RawMessage `json:"weeklySchedule,omitempty"`
	Active         *bool           `json:"active,omitempty"`
}

type UpdatePersonnelRequest struct {
	Name           *string              `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Role           *string              `json:"role,omitempty" validate:"omitempty,personnel_role"`
	SupervisorID   httpkit.OptionalUUID `json:"supervisorId,omitempty" validate:"-"`
	UserID         httpkit.OptionalUUID `json:"userId,omitempty" validate:"-"`
	WeeklySchedule json.RawMessage      `json:"weeklySchedule,omitempty"`
	Active         *bool                `json:"active,omitempty"`
}

type ListPersonnelRequest struct {
	Role string `form:"role" validate:"omitempty,personnel_role"`
}

type PersonnelResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	SupervisorID   *uuid.UUID      `json:"supervisorId,omitempty"`
	UserID         *uuid.UUID      `json:"userId,omitempty"`
	WeeklySchedule json.RawMessage `json:"weeklySchedule,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type PersonnelListResponse struct {
	Items []PersonnelResponse `json:"items"`
}

func ToPersonnelResponse(p domain.OPCPersonnel) PersonnelResponse {
	return PersonnelResponse{
		ID:             p.ID,
		Name:           p.Name,
		Role:           string(p.Role),
		SupervisorID:   p.SupervisorID,
		UserID:         p.UserID,
		WeeklySchedule: p.WeeklySchedule,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
