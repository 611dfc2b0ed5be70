// Package service implements lead mutations on top of the lifecycle engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/leads/transport"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/phone"
	"opc_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound = "lead not found"
	msgPhoneTaken   = "a lead with this phone number already exists"
)

type Service struct {
	store    store.Store
	engine   *lifecycle.Engine
	notifier lifecycle.VisitNotifier
	region   string
}

// New creates the lead service. notifier receives completed visits after commit.
func New(st store.Store, engine *lifecycle.Engine, notifier lifecycle.VisitNotifier, region string) *Service {
	return &Service{store: st, engine: engine, notifier: notifier, region: region}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	lead := domain.Lead{
		Phone:               phone.NormalizeE164In(req.Phone, s.region),
		Name:                sanitize.Text(req.Name),
		Email:               normalizeEmail(req.Email),
		Project:             sanitize.OptionalText(req.Project),
		Medium:              sanitize.OptionalText(req.Medium),
		District:            sanitize.OptionalText(req.District),
		Location:            sanitize.OptionalText(req.Location),
		Notes:               sanitize.OptionalText(req.Notes),
		OPCNotes:            sanitize.OptionalText(req.OPCNotes),
		AssignedAgentID:     req.AssignedAgentID,
		CapturedByID:        req.CapturedByID,
		CaptureSupervisorID: req.CaptureSupervisorID,
		CaptureDate:         req.CaptureDate,
		Classification:      domain.ClassificationNew,
	}
	if lead.Name == "" {
		return transport.LeadResponse{}, apperr.Validation("name is required")
	}
	if req.Classification != nil {
		c, err := domain.ParseClassification(*req.Classification)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation(err.Error())
		}
		lead.Classification = c
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.FindLeadByPhone(ctx, lead.Phone); err == nil {
			return apperr.Conflict(msgPhoneTaken)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := resolveReferences(ctx, tx, &lead); err != nil {
			return err
		}
		return s.engine.CreateLead(ctx, tx, actor, &lead)
	})
	if err != nil {
		return transport.LeadResponse{}, store.AsAppError(err, msgLeadNotFound)
	}
	return transport.ToLeadResponse(lead), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	var lead domain.Lead
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		lead, err = tx.GetLead(ctx, id)
		return err
	})
	if err != nil {
		return transport.LeadResponse{}, store.AsAppError(err, msgLeadNotFound)
	}
	return transport.ToLeadResponse(lead), nil
}

// Update applies the PATCH body. Completed visits caused by the change are
// handed to the notifier after commit.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	var (
		after   domain.Lead
		effects lifecycle.Effects
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		before, err := tx.GetLeadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		after = before
		if err := s.applyPatch(&after, req); err != nil {
			return err
		}
		if after.Phone != before.Phone {
			if other, err := tx.FindLeadByPhone(ctx, after.Phone); err == nil && other.ID != id {
				return apperr.Conflict(msgPhoneTaken)
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		if err := resolveReferences(ctx, tx, &after); err != nil {
			return err
		}
		effects, err = s.engine.UpdateLead(ctx, tx, actor, before, after, "")
		if err != nil {
			return err
		}
		after, err = tx.GetLead(ctx, id)
		return err
	})
	if err != nil {
		return transport.LeadResponse{}, store.AsAppError(err, msgLeadNotFound)
	}

	effects.Notify(ctx, s.notifier)
	return transport.ToLeadResponse(after), nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.GetLeadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return s.engine.DeleteLead(ctx, tx, actor, lead)
	})
	return store.AsAppError(err, msgLeadNotFound)
}

// ListActions returns the lead's audit trail, newest first.
func (s *Service) ListActions(ctx context.Context, id uuid.UUID) ([]audit.ActionView, error) {
	var actions []domain.Action
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetLead(ctx, id); err != nil {
			return err
		}
		var err error
		actions, err = tx.ListActionsByLead(ctx, id)
		return err
	})
	if err != nil {
		return nil, store.AsAppError(err, msgLeadNotFound)
	}
	return audit.Views(actions), nil
}

// Reassign sets the assigned agent on every lead in one transaction. An unknown
// lead aborts the whole batch.
func (s *Service) Reassign(ctx context.Context, actor domain.Actor, req transport.ReassignLeadsRequest) (transport.ReassignLeadsResponse, error) {
	ids := dedupeIDs(req.LeadIDs)
	updated := 0
	var effects lifecycle.Effects

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		note := "Unassigned."
		if req.AgentID != nil {
			agent, err := tx.GetUser(ctx, *req.AgentID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Validation("agent not found")
			}
			if err != nil {
				return err
			}
			note = fmt.Sprintf("Reassigned to %s.", agent.DisplayName())
		}

		for _, id := range ids {
			before, err := tx.GetLeadForUpdate(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound(fmt.Sprintf("lead %s not found", id))
			}
			if err != nil {
				return err
			}
			if sameAgent(before.AssignedAgentID, req.AgentID) {
				continue
			}
			after := before
			after.AssignedAgentID = req.AgentID
			e, err := s.engine.UpdateLead(ctx, tx, actor, before, after, note)
			if err != nil {
				return err
			}
			effects.Merge(e)
			updated++
		}
		return nil
	})
	if err != nil {
		return transport.ReassignLeadsResponse{}, store.AsAppError(err, msgLeadNotFound)
	}

	effects.Notify(ctx, s.notifier)
	return transport.ReassignLeadsResponse{Updated: updated}, nil
}

func (s *Service) applyPatch(lead *domain.Lead, req transport.UpdateLeadRequest) error {
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164In(*req.Phone, s.region)
	}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return apperr.Validation("name cannot be empty")
		}
		lead.Name = name
	}
	if req.Email != nil {
		lead.Email = normalizeEmail(req.Email)
	}
	patchText(&lead.Project, req.Project)
	patchText(&lead.Medium, req.Medium)
	patchText(&lead.District, req.District)
	patchText(&lead.Location, req.Location)
	patchText(&lead.Notes, req.Notes)
	patchText(&lead.OPCNotes, req.OPCNotes)
	if req.Classification != nil {
		c, err := domain.ParseClassification(*req.Classification)
		if err != nil {
			return apperr.Validation(err.Error())
		}
		lead.Classification = c
	}
	req.AssignedAgentID.Apply(&lead.AssignedAgentID)
	req.CapturedByID.Apply(&lead.CapturedByID)
	req.CaptureSupervisorID.Apply(&lead.CaptureSupervisorID)
	if req.CaptureDate != nil {
		lead.CaptureDate = req.CaptureDate
	}
	return nil
}

// resolveReferences checks the weak references a request may set and defaults the
// capture supervisor to the capturing personnel's supervisor.
func resolveReferences(ctx context.Context, tx store.Tx, lead *domain.Lead) error {
	if lead.AssignedAgentID != nil {
		if _, err := tx.GetUser(ctx, *lead.AssignedAgentID); errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("assigned agent not found")
		} else if err != nil {
			return err
		}
	}
	if lead.CapturedByID != nil {
		p, err := tx.GetPersonnel(ctx, *lead.CapturedByID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("capturing personnel not found")
		}
		if err != nil {
			return err
		}
		if lead.CaptureSupervisorID == nil {
			lead.CaptureSupervisorID = p.SupervisorID
		}
	}
	if lead.CaptureSupervisorID != nil {
		sup, err := tx.GetPersonnel(ctx, *lead.CaptureSupervisorID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("capture supervisor not found")
		}
		if err != nil {
			return err
		}
		if sup.Role != domain.PersonnelSupervisor {
			return apperr.Validation("capture supervisor must have the supervisor role")
		}
	}
	return nil
}

func patchText(target **string, value *string) {
	if value != nil {
		*target = sanitize.OptionalText(value)
	}
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

func sameAgent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
