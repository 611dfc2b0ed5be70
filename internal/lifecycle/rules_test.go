package lifecycle

import (
	"testing"

	"opc_crm_backend/internal/domain"
)

func TestOnAppointmentCreated(t *testing.T) {
	tests := []struct {
		current domain.Classification
		want    domain.Classification
		changed bool
	}{
		{current: domain.ClassificationNew, want: domain.ClassificationAppointmentScheduled, changed: true},
		{current: domain.ClassificationFollowUp, want: domain.ClassificationAppointmentScheduled, changed: true},
		{current: domain.ClassificationAppointmentToConfirm, want: domain.ClassificationAppointmentScheduled, changed: true},
		{current: domain.ClassificationAppointmentScheduled},
		{current: domain.ClassificationAppointmentConfirmed},
		{current: domain.ClassificationAppointmentZoom},
		{current: domain.ClassificationAlreadyAttended},
		{current: domain.ClassificationDiscarded},
	}

	for _, tt := range tests {
		got, changed := OnAppointmentCreated(tt.current)
		if changed != tt.changed {
			t.Errorf("OnAppointmentCreated(%q) changed = %v, want %v", tt.current, changed, tt.changed)
			continue
		}
		if changed && got.Next != tt.want {
			t.Errorf("OnAppointmentCreated(%q) = %q, want %q", tt.current, got.Next, tt.want)
		}
	}
}

func TestOnStatusChange(t *testing.T) {
	tests := []struct {
		name     string
		current  domain.Classification
		from, to domain.AppointmentStatus
		want     domain.Classification
		rule     Rule
		changed  bool
	}{
		{name: "confirm", current: domain.ClassificationAppointmentScheduled, from: domain.AppointmentPending, to: domain.AppointmentConfirmed, want: domain.ClassificationAppointmentConfirmed, rule: RuleAppointmentConfirmed, changed: true},
		{name: "confirm twice is not a transition", current: domain.ClassificationAppointmentScheduled, from: domain.AppointmentConfirmed, to: domain.AppointmentConfirmed},
		{name: "confirm keeps modality substate", current: domain.ClassificationAppointmentZoom, from: domain.AppointmentPending, to: domain.AppointmentConfirmed},
		{name: "confirm after attended", current: domain.ClassificationAlreadyAttended, from: domain.AppointmentPending, to: domain.AppointmentConfirmed},
		{name: "done", current: domain.ClassificationAppointmentConfirmed, from: domain.AppointmentConfirmed, to: domain.AppointmentDone, want: domain.ClassificationAlreadyAttended, rule: RuleVisitCompleted, changed: true},
		{name: "done on discarded lead", current: domain.ClassificationDiscarded, from: domain.AppointmentPending, to: domain.AppointmentDone, want: domain.ClassificationAlreadyAttended, rule: RuleVisitCompleted, changed: true},
		{name: "done when already attended", current: domain.ClassificationAlreadyAttended, from: domain.AppointmentConfirmed, to: domain.AppointmentDone},
		{name: "cancel", current: domain.ClassificationAppointmentConfirmed, from: domain.AppointmentConfirmed, to: domain.AppointmentCancelled, want: domain.ClassificationFollowUp, rule: RuleVisitMissed, changed: true},
		{name: "reschedule", current: domain.ClassificationAppointmentScheduled, from: domain.AppointmentPending, to: domain.AppointmentRescheduled, want: domain.ClassificationFollowUp, rule: RuleVisitMissed, changed: true},
		{name: "cancel discarded", current: domain.ClassificationDiscarded, from: domain.AppointmentPending, to: domain.AppointmentCancelled},
		{name: "cancel attended", current: domain.ClassificationAlreadyAttended, from: domain.AppointmentDone, to: domain.AppointmentCancelled},
		{name: "back to pending", current: domain.ClassificationAppointmentConfirmed, from: domain.AppointmentConfirmed, to: domain.AppointmentPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := OnStatusChange(tt.current, tt.from, tt.to)
			if changed != tt.changed {
				t.Fatalf("changed = %v, want %v", changed, tt.changed)
			}
			if !changed {
				return
			}
			if got.Next != tt.want || got.Rule != tt.rule {
				t.Errorf("decision = %+v, want next %q rule %q", got, tt.want, tt.rule)
			}
		})
	}
}

func TestOnAppointmentsCleared(t *testing.T) {
	for _, c := range domain.Classifications {
		got, changed := OnAppointmentsCleared(c)
		if c.IsAppointmentStage() {
			if !changed || got.Next != domain.ClassificationFollowUp {
				t.Errorf("OnAppointmentsCleared(%q) = %+v, %v; want follow-up", c, got, changed)
			}
			continue
		}
		if changed {
			t.Errorf("OnAppointmentsCleared(%q) should leave %q alone", c, c)
		}
	}
}

func TestAttendedDirectly(t *testing.T) {
	if !AttendedDirectly(domain.ClassificationAppointmentConfirmed, domain.ClassificationAlreadyAttended) {
		t.Error("confirmed -> attended should count")
	}
	if AttendedDirectly(domain.ClassificationAlreadyAttended, domain.ClassificationAlreadyAttended) {
		t.Error("attended -> attended is not a change")
	}
	if AttendedDirectly(domain.ClassificationNew, domain.ClassificationFollowUp) {
		t.Error("unrelated change should not count")
	}
}

func TestCompletesVisit(t *testing.T) {
	if !CompletesVisit(domain.AppointmentConfirmed, domain.AppointmentDone) {
		t.Error("confirmed -> done completes the visit")
	}
	if CompletesVisit(domain.AppointmentDone, domain.AppointmentDone) {
		t.Error("done -> done must not re-fire")
	}
}
