package service

import (
	"context"
	"testing"
	"time"

	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/leads/transport"
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

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	notifier := &recordingNotifier{}
	engine := lifecycle.NewEngine(audit.NewLedger())
	return New(st, engine, notifier, "PE"), st, notifier
}

func strPtr(s string) *string { return &s }

var testActor = domain.UserActor(uuid.New(), "agent.one")

func TestCreateNormalizesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	lead, err := svc.Create(context.Background(), testActor, transport.CreateLeadRequest{
		Phone:    "987 654 321",
		Name:     "  Ana   <b>Torres</b> ",
		Email:    strPtr(" Ana@Example.COM "),
		District: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if lead.Phone != "+51987654321" {
		t.Errorf("phone = %q, want +51987654321", lead.Phone)
	}
	if lead.Name != "Ana Torres" {
		t.Errorf("name = %q", lead.Name)
	}
	if lead.Email == nil || *lead.Email != "ana@example.com" {
		t.Errorf("email = %v", lead.Email)
	}
	if lead.District != nil {
		t.Errorf("blank district should be dropped, got %q", *lead.District)
	}
	if lead.Classification != string(domain.ClassificationNew) {
		t.Errorf("classification = %q", lead.Classification)
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654321", Name: "Ana"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "+51 987 654 321", Name: "Otra"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateDefaultsCaptureSupervisor(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	sup := domain.OPCPersonnel{ID: uuid.New(), Name: "Rosa", Role: domain.PersonnelSupervisor, Active: true}
	field := domain.OPCPersonnel{ID: uuid.New(), Name: "Luis", Role: domain.PersonnelField, SupervisorID: &sup.ID, Active: true}
	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertPersonnel(ctx, sup); err != nil {
			return err
		}
		return tx.InsertPersonnel(ctx, field)
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	lead, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654321", Name: "Ana", CapturedByID: &field.ID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if lead.CaptureSupervisorID == nil || *lead.CaptureSupervisorID != sup.ID {
		t.Errorf("capture supervisor = %v, want %s", lead.CaptureSupervisorID, sup.ID)
	}
	if !lead.IsOPCLead {
		t.Error("lead with capturing personnel should be flagged OPC")
	}

	missing := uuid.New()
	_, err = svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654322", Name: "Eva", CapturedByID: &missing})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown personnel should be a validation error, got %v", err)
	}
}

func TestUpdateAttendedDirectlyNotifiesOnce(t *testing.T) {
	svc, st, notifier := newTestService(t)
	ctx := context.Background()
	engine := lifecycle.NewEngine(audit.NewLedger())

	lead, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654321", Name: "Ana"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	appt := domain.Appointment{ScheduledAt: time.Now().Add(24 * time.Hour), Place: "Sala Lima"}
	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		l, err := tx.GetLeadForUpdate(ctx, lead.ID)
		if err != nil {
			return err
		}
		return engine.CreateAppointment(ctx, tx, testActor, &l, &appt)
	})
	if err != nil {
		t.Fatalf("appointment failed: %v", err)
	}

	attended := string(domain.ClassificationAlreadyAttended)
	updated, err := svc.Update(ctx, testActor, lead.ID, transport.UpdateLeadRequest{Classification: &attended})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Classification != attended {
		t.Errorf("classification = %q", updated.Classification)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != appt.ID {
		t.Fatalf("notifier calls = %v, want [%s]", notifier.calls, appt.ID)
	}

	// Repeating the classification is not a transition.
	if _, err := svc.Update(ctx, testActor, lead.ID, transport.UpdateLeadRequest{Classification: &attended}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called again: %v", notifier.calls)
	}
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	agent := domain.User{ID: uuid.New(), Username: "maria", Active: true}
	st.SeedUser(agent)
	lead, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{
		Phone: "987654321", Name: "Ana", Project: strPtr("Oasis"), AssignedAgentID: &agent.ID,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	req := transport.UpdateLeadRequest{Project: strPtr("")}
	req.AssignedAgentID.Set = true
	updated, err := svc.Update(ctx, testActor, lead.ID, req)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Project != nil {
		t.Errorf("project should be cleared, got %q", *updated.Project)
	}
	if updated.AssignedAgentID != nil {
		t.Errorf("agent should be cleared, got %s", updated.AssignedAgentID)
	}
}

func TestDeleteKeepsDeletionEntry(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	lead, err := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654321", Name: "Ana"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, testActor, lead.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, lead.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	actions := st.AllActions()
	if len(actions) != 1 || actions[0].Kind != domain.ActionLeadDeleted || actions[0].LeadID != nil {
		t.Fatalf("unexpected actions after delete: %+v", actions)
	}
}

func TestReassignIsAllOrNothing(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	agent := domain.User{ID: uuid.New(), Username: "maria", FullName: "Maria Paz", Active: true}
	st.SeedUser(agent)
	a, _ := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654321", Name: "Ana"})
	b, _ := svc.Create(ctx, testActor, transport.CreateLeadRequest{Phone: "987654322", Name: "Eva"})

	_, err := svc.Reassign(ctx, testActor, transport.ReassignLeadsRequest{LeadIDs: []uuid.UUID{a.ID, uuid.New()}, AgentID: &agent.ID})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, _ := svc.Get(ctx, a.ID)
	if got.AssignedAgentID != nil {
		t.Fatal("failed batch must not assign any lead")
	}

	out, err := svc.Reassign(ctx, testActor, transport.ReassignLeadsRequest{LeadIDs: []uuid.UUID{a.ID, b.ID, a.ID}, AgentID: &agent.ID})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if out.Updated != 2 {
		t.Errorf("updated = %d, want 2", out.Updated)
	}

	actions, err := svc.ListActions(ctx, a.ID)
	if err != nil {
		t.Fatalf("list actions failed: %v", err)
	}
	if len(actions) == 0 || actions[0].Kind != string(domain.ActionLeadUpdated) {
		t.Fatalf("latest action should be the reassignment, got %+v", actions)
	}
}
