// Package lifecycle applies lead and appointment mutations together with the
// classification rules and audit entries they imply. Every method runs inside the
// caller's transaction; the caller commits and then delivers Effects.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/obs"
	"opc_crm_backend/internal/store"

	"github.com/google/uuid"
)

// Effects are the post-commit consequences of a mutation.
type Effects struct {
	// CompletedVisits lists appointments that transitioned into Done.
	CompletedVisits []uuid.UUID
}

// Merge appends the effects of another mutation in the same transaction.
func (e *Effects) Merge(other Effects) {
	e.CompletedVisits = append(e.CompletedVisits, other.CompletedVisits...)
}

// Engine is stateless apart from its ledger and clock.
type Engine struct {
	ledger *audit.Ledger
	now    func() time.Time
}

func NewEngine(ledger *audit.Ledger) *Engine {
	return &Engine{ledger: ledger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source for entity writes.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	return &Engine{ledger: e.ledger, now: now}
}

func (e *Engine) CreateLead(ctx context.Context, tx store.Tx, actor domain.Actor, lead *domain.Lead) error {
	now := e.now()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Classification == "" {
		lead.Classification = domain.ClassificationNew
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	lead.RefreshOPCFlag()

	if err := tx.InsertLead(ctx, *lead); err != nil {
		return err
	}
	return e.ledger.LeadCreated(ctx, tx, actor, *lead)
}

// UpdateLead persists after (which must carry before's ID) and applies the
// attended-directly rule. note is appended to the audit detail.
func (e *Engine) UpdateLead(ctx context.Context, tx store.Tx, actor domain.Actor, before, after domain.Lead, note string) (Effects, error) {
	var effects Effects

	after.ID = before.ID
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = e.now()
	after.IsOPCLead = after.IsOPCLead || before.IsOPCLead
	after.RefreshOPCFlag()

	if err := tx.UpdateLead(ctx, after); err != nil {
		return effects, err
	}
	if err := e.ledger.LeadUpdated(ctx, tx, actor, after, note); err != nil {
		return effects, err
	}

	if !AttendedDirectly(before.Classification, after.Classification) {
		return effects, nil
	}

	appts, err := tx.ListAppointmentsByLead(ctx, after.ID)
	if err != nil {
		return effects, fmt.Errorf("failed to list appointments: %w", err)
	}
	if len(appts) == 0 || appts[0].Status == domain.AppointmentDone {
		return effects, nil
	}

	latest := appts[0]
	latest.SetStatus(domain.AppointmentDone)
	latest.UpdatedAt = e.now()
	if err := tx.UpdateAppointment(ctx, latest); err != nil {
		return effects, err
	}
	if err := e.ledger.AppointmentUpdated(ctx, tx, actor, after, latest); err != nil {
		return effects, err
	}
	obs.LifecycleTransitions.WithLabelValues("attended_directly").Inc()
	effects.CompletedVisits = append(effects.CompletedVisits, latest.ID)
	return effects, nil
}

// DeleteLead removes the lead with its appointments and history, detaches its
// duplicates, and records a deletion entry that no longer references the lead.
func (e *Engine) DeleteLead(ctx context.Context, tx store.Tx, actor domain.Actor, lead domain.Lead) error {
	if err := tx.DeleteAppointmentsByLead(ctx, lead.ID); err != nil {
		return fmt.Errorf("failed to delete appointments: %w", err)
	}
	if err := tx.DeleteActionsByLead(ctx, lead.ID); err != nil {
		return fmt.Errorf("failed to delete actions: %w", err)
	}
	if err := tx.DetachDuplicates(ctx, lead.ID); err != nil {
		return fmt.Errorf("failed to detach duplicates: %w", err)
	}
	if err := tx.DeleteLead(ctx, lead.ID); err != nil {
		return err
	}
	return e.ledger.LeadDeleted(ctx, tx, actor, lead)
}

// CreateAppointment inserts appt for lead, which must have been read with
// GetLeadForUpdate in this transaction. lead is updated in place.
func (e *Engine) CreateAppointment(ctx context.Context, tx store.Tx, actor domain.Actor, lead *domain.Lead, appt *domain.Appointment) error {
	now := e.now()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = domain.AppointmentPending
	}
	appt.LeadID = lead.ID
	appt.SetStatus(appt.Status)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	if err := tx.InsertAppointment(ctx, *appt); err != nil {
		return err
	}
	if err := e.ledger.AppointmentCreated(ctx, tx, actor, *lead, *appt); err != nil {
		return err
	}

	if decision, ok := OnAppointmentCreated(lead.Classification); ok {
		return e.apply(ctx, tx, actor, lead, decision)
	}
	return nil
}

// UpdateAppointment persists after and applies the status-transition rules.
// lead must be locked in this transaction and is updated in place.
func (e *Engine) UpdateAppointment(ctx context.Context, tx store.Tx, actor domain.Actor, lead *domain.Lead, before, after domain.Appointment) (Effects, error) {
	var effects Effects

	after.ID = before.ID
	after.LeadID = before.LeadID
	after.CreatedAt = before.CreatedAt
	after.EverConfirmed = before.EverConfirmed
	after.SetStatus(after.Status)
	after.UpdatedAt = e.now()

	if err := tx.UpdateAppointment(ctx, after); err != nil {
		return effects, err
	}
	if err := e.ledger.AppointmentUpdated(ctx, tx, actor, *lead, after); err != nil {
		return effects, err
	}

	if decision, ok := OnStatusChange(lead.Classification, before.Status, after.Status); ok {
		if err := e.apply(ctx, tx, actor, lead, decision); err != nil {
			return effects, err
		}
	}
	if CompletesVisit(before.Status, after.Status) {
		effects.CompletedVisits = append(effects.CompletedVisits, after.ID)
	}
	return effects, nil
}

// DeleteAppointment removes appt and reverts the lead to follow-up when it was
// the lead's last appointment.
func (e *Engine) DeleteAppointment(ctx context.Context, tx store.Tx, actor domain.Actor, lead *domain.Lead, appt domain.Appointment) error {
	if err := tx.DeleteAppointment(ctx, appt.ID); err != nil {
		return err
	}
	if err := e.ledger.AppointmentDeleted(ctx, tx, actor, *lead, appt); err != nil {
		return err
	}

	remaining, err := tx.CountAppointmentsByLead(ctx, lead.ID)
	if err != nil {
		return fmt.Errorf("failed to count appointments: %w", err)
	}
	if remaining > 0 {
		return nil
	}
	if decision, ok := OnAppointmentsCleared(lead.Classification); ok {
		return e.apply(ctx, tx, actor, lead, decision)
	}
	return nil
}

func (e *Engine) apply(ctx context.Context, tx store.Tx, actor domain.Actor, lead *domain.Lead, decision Decision) error {
	previous := lead.Classification
	lead.Classification = decision.Next
	lead.UpdatedAt = e.now()

	if err := tx.UpdateLead(ctx, *lead); err != nil {
		lead.Classification = previous
		return fmt.Errorf("failed to apply %s: %w", decision.Rule, err)
	}
	if err := e.ledger.LeadUpdated(ctx, tx, actor, *lead, ""); err != nil {
		return err
	}
	obs.LifecycleTransitions.WithLabelValues(string(decision.Rule)).Inc()
	return nil
}
