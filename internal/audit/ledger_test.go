package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"opc_crm_backend/internal/domain"

	"github.com/google/uuid"
)

type recordingWriter struct {
	actions []domain.Action
	err     error
}

func (w *recordingWriter) InsertAction(_ context.Context, a domain.Action) (domain.Action, error) {
	if w.err != nil {
		return domain.Action{}, w.err
	}
	a.Seq = int64(len(w.actions) + 1)
	w.actions = append(w.actions, a)
	return a, nil
}

var fixedNow = time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

func testLedger() *Ledger {
	return NewLedger().WithClock(func() time.Time { return fixedNow })
}

func TestLeadEntries(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	l := testLedger()
	userID := uuid.New()
	actor := domain.UserActor(userID, "mgarcia")
	lead := domain.Lead{ID: uuid.New(), Name: "Rosa Quispe", Phone: "+51987654321", Classification: domain.ClassificationAppointmentScheduled}

	if err := l.LeadCreated(ctx, w, actor, lead); err != nil {
		t.Fatal(err)
	}
	if err := l.LeadUpdated(ctx, w, domain.SystemActor(), lead, "Merged duplicate."); err != nil {
		t.Fatal(err)
	}
	if err := l.LeadDeleted(ctx, w, actor, lead); err != nil {
		t.Fatal(err)
	}

	created, updated, deleted := w.actions[0], w.actions[1], w.actions[2]

	if created.Kind != domain.ActionLeadCreated || *created.LeadID != lead.ID || created.AppointmentID != nil {
		t.Errorf("unexpected created action: %+v", created)
	}
	if created.ActorID == nil || *created.ActorID != userID || created.ActorName != "mgarcia" {
		t.Errorf("created action actor = %v %q", created.ActorID, created.ActorName)
	}
	if !created.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v", created.CreatedAt)
	}

	if updated.ActorID != nil || !strings.Contains(updated.Detail, "updated by system") {
		t.Errorf("system update detail = %q", updated.Detail)
	}
	if !strings.Contains(updated.Detail, "Current classification: CITA AGENDADA.") || !strings.HasSuffix(updated.Detail, "Merged duplicate.") {
		t.Errorf("update detail = %q", updated.Detail)
	}

	if deleted.LeadID != nil {
		t.Error("lead deletion must not reference the removed lead")
	}
	if !strings.Contains(deleted.Detail, lead.ID.String()) || !strings.Contains(deleted.Detail, "Rosa Quispe") {
		t.Errorf("deletion detail lost the lead identity: %q", deleted.Detail)
	}
}

func TestAppointmentEntries(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	l := testLedger()
	actor := domain.UserActor(uuid.New(), "jperez")
	lead := domain.Lead{ID: uuid.New(), Name: "Rosa Quispe"}
	appt := domain.Appointment{
		ID:          uuid.New(),
		LeadID:      lead.ID,
		ScheduledAt: time.Date(2026, 5, 10, 16, 0, 0, 0, time.UTC),
		Place:       "Sala de ventas Miraflores",
		Status:      domain.AppointmentConfirmed,
	}

	_ = l.AppointmentCreated(ctx, w, actor, lead, appt)
	_ = l.AppointmentUpdated(ctx, w, actor, lead, appt)
	_ = l.AppointmentDeleted(ctx, w, actor, lead, appt)

	created, updated, deleted := w.actions[0], w.actions[1], w.actions[2]
	if *created.LeadID != lead.ID || *created.AppointmentID != appt.ID {
		t.Errorf("created action must reference both entities: %+v", created)
	}
	wantUpdate := "Status: Confirmada. Place: Sala de ventas Miraflores. Time: 10/05/2026 16:00."
	if !strings.Contains(updated.Detail, wantUpdate) {
		t.Errorf("update detail = %q, want it to contain %q", updated.Detail, wantUpdate)
	}
	if deleted.AppointmentID != nil || deleted.LeadID == nil || *deleted.LeadID != lead.ID {
		t.Errorf("appointment deletion references = lead %v appt %v", deleted.LeadID, deleted.AppointmentID)
	}
}

func TestWriteFailureIsReturned(t *testing.T) {
	boom := errors.New("insert failed")
	w := &recordingWriter{err: boom}
	err := testLedger().LeadCreated(context.Background(), w, domain.SystemActor(), domain.Lead{ID: uuid.New()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}
