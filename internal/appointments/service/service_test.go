package service

import (
	"context"
	"testing"
	"time"

	"opc_crm_backend/internal/appointments/transport"
	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/internal/store/memory"
	"opc_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

type recordingNotifier struct {
	calls []uuid.UUID
}

func (n *recordingNotifier) VisitCompleted(_ context.Context, id uuid.UUID) {
	n.calls = append(n.calls, id)
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	svc      *Service
	engine   *lifecycle.Engine
	notifier *recordingNotifier
	actor    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	agent := domain.User{ID: uuid.New(), Username: "agent.one", Active: true}
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memory.New(),
		engine:   lifecycle.NewEngine(audit.NewLedger()),
		notifier: &recordingNotifier{},
		actor:    domain.UserActor(agent.ID, agent.Username),
	}
	f.store.SeedUser(agent)
	f.svc = New(f.store, f.engine, f.notifier)
	return f
}

func (f *fixture) lead(c domain.Classification) domain.Lead {
	f.t.Helper()
	lead := domain.Lead{Phone: "+51987654321", Name: "Ana", Classification: c}
	err := f.store.WithTx(f.ctx, func(ctx context.Context, tx store.Tx) error {
		return f.engine.CreateLead(ctx, tx, f.actor, &lead)
	})
	if err != nil {
		f.t.Fatalf("create lead: %v", err)
	}
	return lead
}

func (f *fixture) create(leadID uuid.UUID, status string) transport.AppointmentResponse {
	f.t.Helper()
	req := transport.CreateAppointmentRequest{LeadID: leadID, ScheduledAt: time.Now().Add(48 * time.Hour), Place: "Sala Lima"}
	if status != "" {
		req.Status = &status
	}
	appt, err := f.svc.Create(f.ctx, f.actor, req)
	if err != nil {
		f.t.Fatalf("create appointment: %v", err)
	}
	return appt
}

func TestCreateSchedulesLead(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationContacted)

	appt := f.create(lead.ID, "")
	if appt.LeadClassification != string(domain.ClassificationAppointmentScheduled) {
		t.Errorf("lead classification = %q", appt.LeadClassification)
	}
	if appt.SchedulingAgentID == nil || *appt.SchedulingAgentID != *f.actor.UserID {
		t.Errorf("scheduling agent should default to the actor, got %v", appt.SchedulingAgentID)
	}
	if appt.Status != string(domain.AppointmentPending) {
		t.Errorf("status = %q", appt.Status)
	}
}

func TestCreateConfirmedSetsEverConfirmed(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationNew)

	appt := f.create(lead.ID, "Confirmada")
	if !appt.EverConfirmed {
		t.Error("appointment created confirmed should be marked ever confirmed")
	}
}

func TestCreateUnknownLead(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, f.actor, transport.CreateAppointmentRequest{LeadID: uuid.New(), ScheduledAt: time.Now()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name      string
		steps     []string
		wantClass domain.Classification
		wantCalls int
	}{
		{"confirm", []string{"confirmed"}, domain.ClassificationAppointmentConfirmed, 0},
		{"done notifies", []string{"done"}, domain.ClassificationAlreadyAttended, 1},
		{"done twice notifies once", []string{"done", "done"}, domain.ClassificationAlreadyAttended, 1},
		{"cancel follows up", []string{"cancelled"}, domain.ClassificationFollowUp, 0},
		{"reschedule after confirm", []string{"confirmed", "rescheduled"}, domain.ClassificationFollowUp, 0},
		{"cancel after attended keeps attended", []string{"done", "cancelled"}, domain.ClassificationAlreadyAttended, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lead := f.lead(domain.ClassificationNew)
			appt := f.create(lead.ID, "")

			var last transport.AppointmentResponse
			for _, step := range tt.steps {
				var err error
				last, err = f.svc.UpdateStatus(f.ctx, f.actor, appt.ID, transport.UpdateStatusRequest{Status: step})
				if err != nil {
					t.Fatalf("status %s: %v", step, err)
				}
			}
			if last.LeadClassification != string(tt.wantClass) {
				t.Errorf("classification = %q, want %q", last.LeadClassification, tt.wantClass)
			}
			if len(f.notifier.calls) != tt.wantCalls {
				t.Errorf("notifier calls = %d, want %d", len(f.notifier.calls), tt.wantCalls)
			}
		})
	}
}

func TestEverConfirmedIsMonotonic(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationNew)
	appt := f.create(lead.ID, "")

	for _, status := range []string{"confirmed", "cancelled", "pending"} {
		if _, err := f.svc.UpdateStatus(f.ctx, f.actor, appt.ID, transport.UpdateStatusRequest{Status: status}); err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
	}
	got, err := f.svc.Get(f.ctx, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.EverConfirmed {
		t.Error("ever confirmed was cleared")
	}
}

func TestUpdateWithoutStatusChangeKeepsClassification(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationNew)
	appt := f.create(lead.ID, "")

	place := "  Proyecto   Oasis "
	got, err := f.svc.Update(f.ctx, f.actor, appt.ID, transport.UpdateAppointmentRequest{Place: &place})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Place != "Proyecto Oasis" {
		t.Errorf("place = %q", got.Place)
	}
	if got.LeadClassification != string(domain.ClassificationAppointmentScheduled) {
		t.Errorf("classification = %q", got.LeadClassification)
	}
	if len(f.notifier.calls) != 0 {
		t.Errorf("unexpected notification")
	}
}

func TestDeleteLastAppointmentFollowsUp(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationNew)
	first := f.create(lead.ID, "")
	second := f.create(lead.ID, "")

	if err := f.svc.Delete(f.ctx, f.actor, first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	list, err := f.svc.ListByLead(f.ctx, lead.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].LeadClassification != string(domain.ClassificationAppointmentScheduled) {
		t.Fatalf("unexpected state after first delete: %+v", list.Items)
	}

	if err := f.svc.Delete(f.ctx, f.actor, second.ID); err != nil {
		t.Fatalf("delete second: %v", err)
	}
	list, err = f.svc.ListByLead(f.ctx, lead.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected no appointments, got %d", len(list.Items))
	}

	actions, err := f.svc.ListActions(f.ctx, second.ID)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != string(domain.ActionAppointmentCreated) {
		t.Fatalf("deleted appointment should keep its creation entry only, got %+v", actions)
	}

	if err := f.svc.Delete(f.ctx, f.actor, second.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on repeated delete, got %v", err)
	}
}

func TestFailedLedgerWriteRollsBack(t *testing.T) {
	f := newFixture(t)
	lead := f.lead(domain.ClassificationNew)
	appt := f.create(lead.ID, "")

	f.store.FailOn("InsertAction", context.DeadlineExceeded)
	if _, err := f.svc.UpdateStatus(f.ctx, f.actor, appt.ID, transport.UpdateStatusRequest{Status: "done"}); err == nil {
		t.Fatal("expected failure")
	}
	f.store.FailOn("InsertAction", nil)

	got, err := f.svc.Get(f.ctx, appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != string(domain.AppointmentPending) {
		t.Errorf("status = %q, want pending after rollback", got.Status)
	}
	if len(f.notifier.calls) != 0 {
		t.Error("rolled back mutation must not notify")
	}
}
