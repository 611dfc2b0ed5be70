// Package service delivers completed visits to the external sales system and
// keeps the delivery log that guards automatic re-delivery.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/obs"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	// ErrDeliveryFailed marks an attempt the sales system did not accept.
	ErrDeliveryFailed = errors.New("visit delivery failed")
	// ErrNotConfigured is returned when no webhook URL is set.
	ErrNotConfigured = errors.New("visit webhook not configured")
)

const msgAppointmentNotFound = "appointment not found"

// Result describes one delivery request. Dispatch is nil when the attempt was skipped.
type Result struct {
	Dispatch *domain.VisitDispatch
	Skipped  bool
}

type Service struct {
	store          store.Store
	sender         Sender
	defaultProject string
	log            *logger.Logger
	now            func() time.Time
}

// New creates the dispatch service. sender may be nil when delivery is disabled.
func New(st store.Store, sender Sender, defaultProject string, log *logger.Logger) *Service {
	return &Service{
		store:          st,
		sender:         sender,
		defaultProject: defaultProject,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether a webhook is configured.
func (s *Service) Enabled() bool {
	return s.sender != nil
}

type visitContext struct {
	lead     domain.Lead
	appt     domain.Appointment
	capturer *domain.OPCPersonnel
}

// Deliver sends the visit held by appointmentID and records the attempt.
// Automatic triggers are skipped once a succeeded attempt exists; manual ones always send.
// A rejected delivery is reported in the result, not as an error.
func (s *Service) Deliver(ctx context.Context, appointmentID uuid.UUID, trigger domain.DispatchTrigger) (Result, error) {
	if s.sender == nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "visit delivery is disabled", ErrNotConfigured)
	}

	var vc visitContext
	skip := false
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		appt, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		lead, err := tx.GetLead(ctx, appt.LeadID)
		if err != nil {
			return err
		}
		vc = visitContext{lead: lead, appt: appt}

		if lead.CapturedByID != nil {
			p, err := tx.GetPersonnel(ctx, *lead.CapturedByID)
			switch {
			case err == nil:
				vc.capturer = &p
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}

		if trigger == domain.DispatchAutomatic {
			done, err := tx.HasSucceededDispatch(ctx, appt.CorrelationID())
			if err != nil {
				return err
			}
			skip = done
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, apperr.NotFound(msgAppointmentNotFound)
	}
	if err != nil {
		return Result{}, err
	}
	if skip {
		return Result{Skipped: true}, nil
	}

	correlationID := vc.appt.CorrelationID()
	payload := BuildPayload(vc.lead, vc.appt, vc.capturer, s.defaultProject)
	status, sendErr := s.sender.Send(ctx, correlationID, payload)

	record := domain.VisitDispatch{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		CorrelationID: correlationID,
		Trigger:       trigger,
		Status:        domain.DispatchSucceeded,
		CreatedAt:     s.now(),
	}
	if status != 0 {
		record.ResponseCode = &status
	}
	if sendErr != nil {
		msg := sendErr.Error()
		record.Status = domain.DispatchFailed
		record.Error = &msg
		s.log.DispatchFailed(appointmentID.String(), correlationID, string(trigger), sendErr)
	} else {
		s.log.DispatchSucceeded(appointmentID.String(), correlationID, string(trigger), status)
	}
	obs.VisitDispatches.WithLabelValues(string(trigger), string(record.Status)).Inc()

	if err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertDispatch(ctx, record)
	}); err != nil {
		s.log.DatabaseError("insert visit dispatch", err)
		return Result{Dispatch: &record}, fmt.Errorf("failed to record visit dispatch: %w", err)
	}
	return Result{Dispatch: &record}, nil
}

// DeliverQueued is the worker entry point. A rejected delivery returns an error so
// the queue can retry; a vanished appointment does not.
func (s *Service) DeliverQueued(ctx context.Context, appointmentID uuid.UUID) error {
	res, err := s.Deliver(ctx, appointmentID, domain.DispatchAutomatic)
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Warn("visit dispatch dropped", "appointment_id", appointmentID.String(), "reason", "appointment not found")
		return nil
	}
	if errors.Is(err, ErrNotConfigured) {
		s.log.Warn("visit dispatch dropped", "appointment_id", appointmentID.String(), "reason", "webhook not configured")
		return nil
	}
	if err != nil {
		return err
	}
	if res.Dispatch != nil && res.Dispatch.Status == domain.DispatchFailed {
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, domain.StringValue(res.Dispatch.Error))
	}
	return nil
}

// ListDispatches returns the delivery log of an appointment, newest first.
func (s *Service) ListDispatches(ctx context.Context, appointmentID uuid.UUID) ([]domain.VisitDispatch, error) {
	var out []domain.VisitDispatch
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetAppointment(ctx, appointmentID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListDispatchesByAppointment(ctx, appointmentID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgAppointmentNotFound)
	}
	return out, err
}
