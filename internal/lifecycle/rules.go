package lifecycle

import "opc_crm_backend/internal/domain"

// Rule names the trigger that changed a lead's classification.
type Rule string

const (
	RuleAppointmentScheduled Rule = "appointment_scheduled"
	RuleAppointmentConfirmed Rule = "appointment_confirmed"
	RuleVisitCompleted       Rule = "visit_completed"
	RuleVisitMissed          Rule = "visit_missed"
	RuleAppointmentsCleared  Rule = "appointments_cleared"
)

// Decision is a classification change demanded by a rule.
type Decision struct {
	Rule Rule
	Next domain.Classification
}

func decide(rule Rule, current, next domain.Classification) (Decision, bool) {
	if current == next {
		return Decision{}, false
	}
	return Decision{Rule: rule, Next: next}, true
}

// OnAppointmentCreated moves the lead to "scheduled" unless it already has a
// confirmed visit, has attended, or was discarded.
func OnAppointmentCreated(current domain.Classification) (Decision, bool) {
	if current.IsConfirmedAppointment() || current.IsAttended() || current.IsDiscarded() {
		return Decision{}, false
	}
	return decide(RuleAppointmentScheduled, current, domain.ClassificationAppointmentScheduled)
}

// OnStatusChange evaluates an appointment status transition. from == to is not a
// transition and never produces a decision.
func OnStatusChange(current domain.Classification, from, to domain.AppointmentStatus) (Decision, bool) {
	if from == to {
		return Decision{}, false
	}
	switch to {
	case domain.AppointmentConfirmed:
		if current.IsConfirmedAppointment() || current.IsAttended() {
			return Decision{}, false
		}
		return decide(RuleAppointmentConfirmed, current, domain.ClassificationAppointmentConfirmed)
	case domain.AppointmentDone:
		if current.IsAttended() {
			return Decision{}, false
		}
		return decide(RuleVisitCompleted, current, domain.ClassificationAlreadyAttended)
	case domain.AppointmentCancelled, domain.AppointmentRescheduled:
		if current.IsDiscarded() || current.IsAttended() {
			return Decision{}, false
		}
		return decide(RuleVisitMissed, current, domain.ClassificationFollowUp)
	}
	return Decision{}, false
}

// OnAppointmentsCleared applies once a lead's last appointment is deleted.
func OnAppointmentsCleared(current domain.Classification) (Decision, bool) {
	if !current.IsAppointmentStage() {
		return Decision{}, false
	}
	return decide(RuleAppointmentsCleared, current, domain.ClassificationFollowUp)
}

// AttendedDirectly reports whether an agent marked the lead as attended by editing
// the lead itself rather than completing an appointment.
func AttendedDirectly(before, after domain.Classification) bool {
	return !before.IsAttended() && after.IsAttended()
}

// CompletesVisit reports whether a status change is a transition into Done.
func CompletesVisit(from, to domain.AppointmentStatus) bool {
	return from != domain.AppointmentDone && to == domain.AppointmentDone
}
