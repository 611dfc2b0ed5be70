// Package service implements appointment operations. Every mutation locks the
// lead before touching its appointments.
package service

import (
	"context"
	"errors"

	"opc_crm_backend/internal/appointments/transport"
	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgAppointmentNotFound = "appointment not found"
	msgLeadNotFound        = "lead not found"
)

type Service struct {
	store    store.Store
	engine   *lifecycle.Engine
	notifier lifecycle.VisitNotifier
}

func New(st store.Store, engine *lifecycle.Engine, notifier lifecycle.VisitNotifier) *Service {
	return &Service{store: st, engine: engine, notifier: notifier}
}

// Create schedules a visit. The scheduling agent defaults to the actor when the
// actor is a CRM user.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req transport.CreateAppointmentRequest) (transport.AppointmentResponse, error) {
	appt := domain.Appointment{
		ScheduledAt:          req.ScheduledAt.UTC(),
		Place:                sanitize.Text(req.Place),
		Notes:                sanitize.OptionalText(req.Notes),
		SchedulingAgentID:    req.SchedulingAgentID,
		AttendingAgentID:     req.AttendingAgentID,
		AttendingPersonnelID: req.AttendingPersonnelID,
		Status:               domain.AppointmentPending,
	}
	if req.Status != nil {
		status, err := domain.ParseAppointmentStatus(*req.Status)
		if err != nil {
			return transport.AppointmentResponse{}, apperr.Validation(err.Error())
		}
		appt.Status = status
	}

	var lead domain.Lead
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		lead, err = tx.GetLeadForUpdate(ctx, req.LeadID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgLeadNotFound)
		}
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, appt); err != nil {
			return err
		}
		if appt.SchedulingAgentID == nil {
			if appt.SchedulingAgentID, err = actorUser(ctx, tx, actor); err != nil {
				return err
			}
		}
		return s.engine.CreateAppointment(ctx, tx, actor, &lead, &appt)
	})
	if err != nil {
		return transport.AppointmentResponse{}, store.AsAppError(err, msgAppointmentNotFound)
	}
	return transport.ToAppointmentResponse(appt, lead), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.AppointmentResponse, error) {
	var (
		appt domain.Appointment
		lead domain.Lead
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if appt, err = tx.GetAppointment(ctx, id); err != nil {
			return err
		}
		lead, err = tx.GetLead(ctx, appt.LeadID)
		return err
	})
	if err != nil {
		return transport.AppointmentResponse{}, store.AsAppError(err, msgAppointmentNotFound)
	}
	return transport.ToAppointmentResponse(appt, lead), nil
}

// ListByLead returns the lead's appointments, most recent first.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) (transport.AppointmentListResponse, error) {
	var (
		lead  domain.Lead
		appts []domain.Appointment
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if lead, err = tx.GetLead(ctx, leadID); err != nil {
			return err
		}
		appts, err = tx.ListAppointmentsByLead(ctx, leadID)
		return err
	})
	if err != nil {
		return transport.AppointmentListResponse{}, store.AsAppError(err, msgLeadNotFound)
	}

	out := transport.AppointmentListResponse{Items: make([]transport.AppointmentResponse, 0, len(appts))}
	for _, a := range appts {
		out.Items = append(out.Items, transport.ToAppointmentResponse(a, lead))
	}
	return out, nil
}

// Update applies the PATCH body and the status-transition rules.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateAppointmentRequest) (transport.AppointmentResponse, error) {
	var status *domain.AppointmentStatus
	if req.Status != nil {
		parsed, err := domain.ParseAppointmentStatus(*req.Status)
		if err != nil {
			return transport.AppointmentResponse{}, apperr.Validation(err.Error())
		}
		status = &parsed
	}

	return s.mutate(ctx, actor, id, func(appt *domain.Appointment) {
		if req.ScheduledAt != nil {
			appt.ScheduledAt = req.ScheduledAt.UTC()
		}
		if req.Place != nil {
			appt.Place = sanitize.Text(*req.Place)
		}
		if req.Notes != nil {
			appt.Notes = sanitize.OptionalText(req.Notes)
		}
		if status != nil {
			appt.Status = *status
		}
		req.AttendingAgentID.Apply(&appt.AttendingAgentID)
		req.AttendingPersonnelID.Apply(&appt.AttendingPersonnelID)
	})
}

// UpdateStatus changes only the status.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateStatusRequest) (transport.AppointmentResponse, error) {
	status, err := domain.ParseAppointmentStatus(req.Status)
	if err != nil {
		return transport.AppointmentResponse{}, apperr.Validation(err.Error())
	}
	return s.mutate(ctx, actor, id, func(appt *domain.Appointment) {
		appt.Status = status
	})
}

func (s *Service) mutate(ctx context.Context, actor domain.Actor, id uuid.UUID, patch func(*domain.Appointment)) (transport.AppointmentResponse, error) {
	var (
		after   domain.Appointment
		lead    domain.Lead
		effects lifecycle.Effects
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		before, err := s.lockAppointment(ctx, tx, id, &lead)
		if err != nil {
			return err
		}
		after = before
		patch(&after)
		if err := checkReferences(ctx, tx, after); err != nil {
			return err
		}
		effects, err = s.engine.UpdateAppointment(ctx, tx, actor, &lead, before, after)
		if err != nil {
			return err
		}
		after, err = tx.GetAppointment(ctx, id)
		return err
	})
	if err != nil {
		return transport.AppointmentResponse{}, store.AsAppError(err, msgAppointmentNotFound)
	}

	effects.Notify(ctx, s.notifier)
	return transport.ToAppointmentResponse(after, lead), nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var lead domain.Lead
		appt, err := s.lockAppointment(ctx, tx, id, &lead)
		if err != nil {
			return err
		}
		return s.engine.DeleteAppointment(ctx, tx, actor, &lead, appt)
	})
	return store.AsAppError(err, msgAppointmentNotFound)
}

// ListActions returns the appointment's audit trail. Entries survive the
// appointment's deletion, so an unknown id yields an empty list.
func (s *Service) ListActions(ctx context.Context, id uuid.UUID) ([]audit.ActionView, error) {
	var actions []domain.Action
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		actions, err = tx.ListActionsByAppointment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return audit.Views(actions), nil
}

// lockAppointment locks the owning lead, then re-reads the appointment so the
// caller sees the state committed before the lock was taken.
func (s *Service) lockAppointment(ctx context.Context, tx store.Tx, id uuid.UUID, lead *domain.Lead) (domain.Appointment, error) {
	appt, err := tx.GetAppointment(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if *lead, err = tx.GetLeadForUpdate(ctx, appt.LeadID); err != nil {
		return domain.Appointment{}, err
	}
	return tx.GetAppointment(ctx, id)
}

func checkReferences(ctx context.Context, tx store.Tx, appt domain.Appointment) error {
	for _, ref := range []struct {
		id  *uuid.UUID
		msg string
	}{
		{appt.SchedulingAgentID, "scheduling agent not found"},
		{appt.AttendingAgentID, "attending agent not found"},
	} {
		if ref.id == nil {
			continue
		}
		if _, err := tx.GetUser(ctx, *ref.id); errors.Is(err, store.ErrNotFound) {
			return apperr.Validation(ref.msg)
		} else if err != nil {
			return err
		}
	}
	if appt.AttendingPersonnelID != nil {
		if _, err := tx.GetPersonnel(ctx, *appt.AttendingPersonnelID); errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("attending personnel not found")
		} else if err != nil {
			return err
		}
	}
	return nil
}

func actorUser(ctx context.Context, tx store.Tx, actor domain.Actor) (*uuid.UUID, error) {
	if actor.IsSystem() {
		return nil, nil
	}
	u, err := tx.GetUser(ctx, *actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u.ID, nil
}
