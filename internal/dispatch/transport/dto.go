package transport

import (
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

// VisitDispatchResponse is one delivery attempt in the dispatch log.
type VisitDispatchResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	CorrelationID string    `json:"correlationId"`
	Trigger       string    `json:"trigger"`
	Status        string    `json:"status"`
	ResponseCode  *int      `json:"responseCode,omitempty"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TriggerDispatchResponse is returned by a manual re-delivery.
type TriggerDispatchResponse struct {
	Delivered bool                   `json:"delivered"`
	Dispatch  *VisitDispatchResponse `json:"dispatch,omitempty"`
}

type ListDispatchesResponse struct {
	Items []VisitDispatchResponse `json:"items"`
}

func ToVisitDispatchResponse(d domain.VisitDispatch) VisitDispatchResponse {
	return VisitDispatchResponse{
		ID:            d.ID,
		AppointmentID: d.AppointmentID,
		CorrelationID: d.CorrelationID,
		Trigger:       string(d.Trigger),
		Status:        string(d.Status),
		ResponseCode:  d.ResponseCode,
		Error:         d.Error,
		CreatedAt:     d.CreatedAt,
	}
}
