package service

import (
	"context"
	"reflect"
	"testing"

	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/duplicates/transport"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/internal/store/memory"
	"opc_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	engine   *lifecycle.Engine
	resolver *Resolver
	actor    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	engine := lifecycle.NewEngine(audit.NewLedger())
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    st,
		engine:   engine,
		resolver: New(st, engine),
		actor:    domain.UserActor(uuid.New(), "reviewer"),
	}
}

func (f *fixture) tx(fn func(ctx context.Context, tx store.Tx) error) {
	f.t.Helper()
	if err := f.store.WithTx(f.ctx, fn); err != nil {
		f.t.Fatalf("transaction failed: %v", err)
	}
}

func (f *fixture) lead(l domain.Lead) domain.Lead {
	f.t.Helper()
	f.tx(func(ctx context.Context, tx store.Tx) error {
		return f.engine.CreateLead(ctx, tx, f.actor, &l)
	})
	return l
}

func (f *fixture) quarantine(original domain.Lead, s domain.LeadSnapshot) domain.LeadDuplicate {
	f.t.Helper()
	var dup domain.LeadDuplicate
	f.tx(func(ctx context.Context, tx store.Tx) error {
		var err error
		dup, err = f.resolver.Quarantine(ctx, tx, Match{Lead: original, Reason: domain.MatchPhone}, s, "01HZBATCH")
		return err
	})
	return dup
}

func TestDetectOrder(t *testing.T) {
	f := newFixture(t)
	byPhone := f.lead(domain.Lead{Phone: "+51987654321", Name: "Ana Torres"})
	byEmail := f.lead(domain.Lead{Phone: "+51911111111", Name: "Eva Rios", Email: strPtr("eva@example.com")})
	byName := f.lead(domain.Lead{Phone: "912345678", Name: "Luis Paz"})

	tests := []struct {
		name       string
		snapshot   domain.LeadSnapshot
		wantLead   uuid.UUID
		wantReason domain.MatchReason
	}{
		{"phone wins over email", domain.LeadSnapshot{Name: "X", Phone: "+51987654321", Email: strPtr("eva@example.com")}, byPhone.ID, domain.MatchPhone},
		{"email case insensitive", domain.LeadSnapshot{Name: "X", Phone: "+51900000000", Email: strPtr(" EVA@Example.com ")}, byEmail.ID, domain.MatchEmail},
		{"name with national digits", domain.LeadSnapshot{Name: "luis paz", Phone: "+51912345678"}, byName.ID, domain.MatchNamePhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := detect(t, f, tt.snapshot)
			if m == nil {
				t.Fatal("expected a match")
			}
			if m.Lead.ID != tt.wantLead || m.Reason != tt.wantReason {
				t.Errorf("got lead %s reason %s, want %s %s", m.Lead.ID, m.Reason, tt.wantLead, tt.wantReason)
			}
		})
	}

	t.Run("no match", func(t *testing.T) {
		if m := detect(t, f, domain.LeadSnapshot{Name: "Luis Paz", Phone: "+51999999999"}); m != nil {
			t.Errorf("unexpected match %+v", m)
		}
	})
}

func detect(t *testing.T, f *fixture, s domain.LeadSnapshot) *Match {
	t.Helper()
	var m *Match
	err := f.store.WithTx(f.ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		m, err = f.resolver.Detect(ctx, tx, s)
		return err
	})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	return m
}

func TestMergeFillsOnlyEmptyFields(t *testing.T) {
	f := newFixture(t)
	sup := domain.OPCPersonnel{ID: uuid.New(), Name: "Rosa", Role: domain.PersonnelSupervisor}
	field := domain.OPCPersonnel{ID: uuid.New(), Name: "Luis", Role: domain.PersonnelField, SupervisorID: &sup.ID}
	f.tx(func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertPersonnel(ctx, sup); err != nil {
			return err
		}
		return tx.InsertPersonnel(ctx, field)
	})

	original := f.lead(domain.Lead{Phone: "+51987654321", Name: "Ana", Project: strPtr("Oasis")})
	dup := f.quarantine(original, domain.LeadSnapshot{
		Name:         "Ana Maria",
		Phone:        "+51987654321",
		Project:      strPtr("Otro"),
		District:     strPtr("Surco"),
		CapturedByID: &field.ID,
	})

	out, err := f.resolver.Merge(f.ctx, f.actor, dup.ID)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if want := []string{"district", "captured_by"}; !reflect.DeepEqual(out.FilledFields, want) {
		t.Errorf("filled = %v, want %v", out.FilledFields, want)
	}
	if out.Duplicate.Status != string(domain.DuplicateMerged) || out.Duplicate.ResolvedAt == nil {
		t.Errorf("duplicate not resolved: %+v", out.Duplicate)
	}
	if out.Duplicate.ResolvedByID == nil || *out.Duplicate.ResolvedByID != *f.actor.UserID {
		t.Errorf("resolved by = %v", out.Duplicate.ResolvedByID)
	}

	f.tx(func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.GetLead(ctx, original.ID)
		if err != nil {
			return err
		}
		if lead.Name != "Ana" || *lead.Project != "Oasis" {
			t.Errorf("populated fields were overwritten: %q %q", lead.Name, *lead.Project)
		}
		if lead.District == nil || *lead.District != "Surco" {
			t.Errorf("district not filled")
		}
		if !lead.IsOPCLead {
			t.Error("capturing personnel should flag the lead as OPC")
		}
		if lead.CaptureSupervisorID == nil || *lead.CaptureSupervisorID != sup.ID {
			t.Errorf("capture supervisor = %v", lead.CaptureSupervisorID)
		}
		actions, err := tx.ListActionsByLead(ctx, original.ID)
		if err != nil {
			return err
		}
		if actions[0].Kind != domain.ActionLeadUpdated {
			t.Errorf("latest action = %s", actions[0].Kind)
		}
		return nil
	})

	again, err := f.resolver.Merge(f.ctx, f.actor, dup.ID)
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	if len(again.FilledFields) != 0 || again.Duplicate.Status != string(domain.DuplicateMerged) {
		t.Errorf("second merge should be a no-op: %+v", again)
	}
}

func TestMergeWithDeletedOriginalIsGone(t *testing.T) {
	f := newFixture(t)
	original := f.lead(domain.Lead{Phone: "+51987654321", Name: "Ana"})
	dup := f.quarantine(original, domain.LeadSnapshot{Name: "Ana", Phone: "+51987654321"})

	f.tx(func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.GetLeadForUpdate(ctx, original.ID)
		if err != nil {
			return err
		}
		return f.engine.DeleteLead(ctx, tx, f.actor, lead)
	})

	_, err := f.resolver.Merge(f.ctx, f.actor, dup.ID)
	if !apperr.Is(err, apperr.KindGone) {
		t.Fatalf("expected gone, got %v", err)
	}
	got, err := f.resolver.Get(f.ctx, dup.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != string(domain.DuplicatePending) || got.OriginalLeadID != nil {
		t.Errorf("duplicate should stay pending and detached: %+v", got)
	}
}

func TestIgnoreIsTerminal(t *testing.T) {
	f := newFixture(t)
	original := f.lead(domain.Lead{Phone: "+51987654321", Name: "Ana"})
	dup := f.quarantine(original, domain.LeadSnapshot{Name: "Ana", Phone: "+51987654321", District: strPtr("Surco")})

	ignored, err := f.resolver.Ignore(f.ctx, f.actor, dup.ID)
	if err != nil {
		t.Fatalf("ignore failed: %v", err)
	}
	if ignored.Status != string(domain.DuplicateIgnored) {
		t.Fatalf("status = %s", ignored.Status)
	}

	merged, err := f.resolver.Merge(f.ctx, f.actor, dup.ID)
	if err != nil {
		t.Fatalf("merge after ignore failed: %v", err)
	}
	if merged.Duplicate.Status != string(domain.DuplicateIgnored) {
		t.Errorf("merge changed an ignored duplicate: %s", merged.Duplicate.Status)
	}
	f.tx(func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.GetLead(ctx, original.ID)
		if err != nil {
			return err
		}
		if lead.District != nil {
			t.Error("ignore must not touch the lead")
		}
		return nil
	})

	if _, err := f.resolver.Ignore(f.ctx, f.actor, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	original := f.lead(domain.Lead{Phone: "+51987654321", Name: "Ana"})
	first := f.quarantine(original, domain.LeadSnapshot{Name: "Ana", Phone: "+51987654321"})
	f.quarantine(original, domain.LeadSnapshot{Name: "Ana B", Phone: "+51987654321"})
	if _, err := f.resolver.Ignore(f.ctx, f.actor, first.ID); err != nil {
		t.Fatalf("ignore failed: %v", err)
	}

	pending, err := f.resolver.List(f.ctx, transport.ListDuplicatesRequest{Status: "pending"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending.Items) != 1 || pending.Items[0].Snapshot.Name != "Ana B" {
		t.Errorf("pending = %+v", pending.Items)
	}

	all, err := f.resolver.List(f.ctx, transport.ListDuplicatesRequest{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all.Items) != 2 {
		t.Errorf("all = %d, want 2", len(all.Items))
	}
}
