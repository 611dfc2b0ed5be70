package audit

import (
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

// ActionView is the JSON shape of an Action in the lead and appointment trails.
type ActionView struct {
	ID            uuid.UUID  `json:"id"`
	Seq           int64      `json:"seq"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	ActorID       *uuid.UUID `json:"actorId,omitempty"`
	ActorName     string     `json:"actorName"`
	Kind          string     `json:"kind"`
	Detail        string     `json:"detail"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Views keeps the order of actions and never returns nil.
func Views(actions []domain.Action) []ActionView {
	out := make([]ActionView, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionView{
			ID:            a.ID,
			Seq:           a.Seq,
			LeadID:        a.LeadID,
			AppointmentID: a.AppointmentID,
			ActorID:       a.ActorID,
			ActorName:     a.ActorName,
			Kind:          string(a.Kind),
			Detail:        a.Detail,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out
}
