// Package audit appends the immutable Action trail for lead and appointment mutations.
// Entries are written through the caller's transaction; a failed write fails the mutation.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

// Writer is the part of a store transaction the ledger needs.
type Writer interface {
	InsertAction(ctx context.Context, action domain.Action) (domain.Action, error)
}

// Ledger builds Action records.
type Ledger struct {
	now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	return &Ledger{now: now}
}

const timeLayout = "02/01/2006 15:04"

func (l *Ledger) LeadCreated(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead) error {
	detail := fmt.Sprintf("Lead %q (ID: %s) created by %s. Classification: %s.",
		lead.Name, lead.ID, actor.DisplayName(), lead.Classification)
	return l.append(ctx, w, actor, domain.ActionLeadCreated, idPtr(lead.ID), nil, detail)
}

func (l *Ledger) LeadUpdated(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead, note string) error {
	detail := fmt.Sprintf("Lead %q (ID: %s) updated by %s. Current classification: %s.",
		lead.Name, lead.ID, actor.DisplayName(), lead.Classification)
	if note = strings.TrimSpace(note); note != "" {
		detail += " " + note
	}
	return l.append(ctx, w, actor, domain.ActionLeadUpdated, idPtr(lead.ID), nil, detail)
}

// LeadDeleted records the deletion with no lead reference, since the row is gone.
func (l *Ledger) LeadDeleted(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead) error {
	detail := fmt.Sprintf("Lead %q (ID: %s, phone: %s) deleted by %s.",
		lead.Name, lead.ID, lead.Phone, actor.DisplayName())
	return l.append(ctx, w, actor, domain.ActionLeadDeleted, nil, nil, detail)
}

func (l *Ledger) AppointmentCreated(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead, appt domain.Appointment) error {
	detail := fmt.Sprintf("Appointment (ID: %s) with %s scheduled by %s for %s at %s. Status: %s.",
		appt.ID, lead.Name, actor.DisplayName(), appt.ScheduledAt.Format(timeLayout), placeText(appt.Place), appt.Status.Label())
	return l.append(ctx, w, actor, domain.ActionAppointmentCreated, idPtr(lead.ID), idPtr(appt.ID), detail)
}

func (l *Ledger) AppointmentUpdated(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead, appt domain.Appointment) error {
	detail := fmt.Sprintf("Appointment (ID: %s) with %s updated by %s. Status: %s. Place: %s. Time: %s.",
		appt.ID, lead.Name, actor.DisplayName(), appt.Status.Label(), placeText(appt.Place), appt.ScheduledAt.Format(timeLayout))
	return l.append(ctx, w, actor, domain.ActionAppointmentUpdated, idPtr(lead.ID), idPtr(appt.ID), detail)
}

// AppointmentDeleted keeps the lead reference and drops the appointment reference.
func (l *Ledger) AppointmentDeleted(ctx context.Context, w Writer, actor domain.Actor, lead domain.Lead, appt domain.Appointment) error {
	detail := fmt.Sprintf("Appointment (ID: %s) with %s for %s deleted by %s.",
		appt.ID, lead.Name, appt.ScheduledAt.Format(timeLayout), actor.DisplayName())
	return l.append(ctx, w, actor, domain.ActionAppointmentDeleted, idPtr(lead.ID), nil, detail)
}

func (l *Ledger) append(ctx context.Context, w Writer, actor domain.Actor, kind domain.ActionKind, leadID, apptID *uuid.UUID, detail string) error {
	action := domain.Action{
		ID:            uuid.New(),
		LeadID:        leadID,
		AppointmentID: apptID,
		ActorID:       actor.UserID,
		ActorName:     actor.DisplayName(),
		Kind:          kind,
		Detail:        detail,
		CreatedAt:     l.now(),
	}
	if _, err := w.InsertAction(ctx, action); err != nil {
		return fmt.Errorf("failed to append %s action: %w", kind, err)
	}
	return nil
}

func placeText(place string) string {
	if strings.TrimSpace(place) == "" {
		return "no place set"
	}
	return place
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
