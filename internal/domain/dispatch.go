package domain

import (
	"time"

	"github.com/google/uuid"
)

// DispatchTrigger tells whether a visit notification came from a state change or an operator.
type DispatchTrigger string

const (
	DispatchAutomatic DispatchTrigger = "automatic"
	DispatchManual    DispatchTrigger = "manual"
)

type DispatchStatus string

const (
	DispatchSucceeded DispatchStatus = "succeeded"
	DispatchFailed    DispatchStatus = "failed"
)

// VisitDispatch records one attempt to mirror a completed visit to the sales system.
type VisitDispatch struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	CorrelationID string
	Trigger       DispatchTrigger
	Status        DispatchStatus
	ResponseCode  *int
	Error         *string
	CreatedAt     time.Time
}
