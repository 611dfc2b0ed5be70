// Package service manages OPC field personnel and their supervisors.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/personnel/transport"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const msgPersonnelNotFound = "OPC personnel not found"

type Service struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, req transport.CreatePersonnelRequest) (transport.PersonnelResponse, error) {
	role, err := domain.ParsePersonnelRole(req.Role)
	if err != nil {
		return transport.PersonnelResponse{}, apperr.Validation(err.Error())
	}
	now := s.now()
	p := domain.OPCPersonnel{
		ID:             uuid.New(),
		Name:           sanitize.Text(req.Name),
		Role:           role,
		SupervisorID:   req.SupervisorID,
		UserID:         req.UserID,
		WeeklySchedule: normalizeSchedule(req.WeeklySchedule),
		Active:         req.Active == nil || *req.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := s.check(ctx, tx, p); err != nil {
			return err
		}
		return tx.InsertPersonnel(ctx, p)
	})
	if err != nil {
		return transport.PersonnelResponse{}, store.AsAppError(err, msgPersonnelNotFound)
	}
	return transport.ToPersonnelResponse(p), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.PersonnelResponse, error) {
	var p domain.OPCPersonnel
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		p, err = tx.GetPersonnel(ctx, id)
		return err
	})
	if err != nil {
		return transport.PersonnelResponse{}, store.AsAppError(err, msgPersonnelNotFound)
	}
	return transport.ToPersonnelResponse(p), nil
}

func (s *Service) List(ctx context.Context, req transport.ListPersonnelRequest) (transport.PersonnelListResponse, error) {
	var role *domain.PersonnelRole
	if req.Role != "" {
		r, err := domain.ParsePersonnelRole(req.Role)
		if err != nil {
			return transport.PersonnelListResponse{}, apperr.Validation(err.Error())
		}
		role = &r
	}

	var items []domain.OPCPersonnel
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		items, err = tx.ListPersonnel(ctx, role)
		return err
	})
	if err != nil {
		return transport.PersonnelListResponse{}, err
	}

	out := transport.PersonnelListResponse{Items: make([]transport.PersonnelResponse, 0, len(items))}
	for _, p := range items {
		out.Items = append(out.Items, transport.ToPersonnelResponse(p))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdatePersonnelRequest) (transport.PersonnelResponse, error) {
	var p domain.OPCPersonnel
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p, err = tx.GetPersonnel(ctx, id); err != nil {
			return err
		}
		previousRole := p.Role

		if req.Name != nil {
			p.Name = sanitize.Text(*req.Name)
		}
		if req.Role != nil {
			if p.Role, err = domain.ParsePersonnelRole(*req.Role); err != nil {
				return apperr.Validation(err.Error())
			}
		}
		req.SupervisorID.Apply(&p.SupervisorID)
		req.UserID.Apply(&p.UserID)
		if req.WeeklySchedule != nil {
			p.WeeklySchedule = normalizeSchedule(req.WeeklySchedule)
		}
		if req.Active != nil {
			p.Active = *req.Active
		}
		p.UpdatedAt = s.now()

		if previousRole == domain.PersonnelSupervisor && p.Role != domain.PersonnelSupervisor {
			n, err := tx.CountSubordinates(ctx, p.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperr.Conflict("personnel still supervises other staff")
			}
		}
		if err := s.check(ctx, tx, p); err != nil {
			return err
		}
		return tx.UpdatePersonnel(ctx, p)
	})
	if err != nil {
		return transport.PersonnelResponse{}, store.AsAppError(err, msgPersonnelNotFound)
	}
	return transport.ToPersonnelResponse(p), nil
}

// Delete removes the personnel. Subordinates, leads and appointments that
// referenced it keep their rows with the reference cleared.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeletePersonnel(ctx, id)
	})
	return store.AsAppError(err, msgPersonnelNotFound)
}

func (s *Service) check(ctx context.Context, tx store.Tx, p domain.OPCPersonnel) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if err := domain.ValidateWeeklySchedule(p.WeeklySchedule); err != nil {
		return apperr.Validation(err.Error())
	}
	if p.SupervisorID != nil {
		if *p.SupervisorID == p.ID {
			return apperr.Validation("personnel cannot supervise itself")
		}
		sup, err := tx.GetPersonnel(ctx, *p.SupervisorID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("supervisor not found")
		}
		if err != nil {
			return err
		}
		if sup.Role != domain.PersonnelSupervisor {
			return apperr.Validation("supervisor must have the supervisor role")
		}
	}
	if p.UserID != nil {
		if _, err := tx.GetUser(ctx, *p.UserID); errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("user not found")
		} else if err != nil {
			return err
		}
	}
	return nil
}

func normalizeSchedule(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
