// Package service detects imported leads that collide with existing ones and
// resolves the quarantined duplicates.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/duplicates/transport"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	msgDuplicateNotFound = "lead duplicate not found"
	msgOriginalGone      = "the original lead no longer exists"
)

// Match is a detected collision with an existing lead.
type Match struct {
	Lead   domain.Lead
	Reason domain.MatchReason
}

type Resolver struct {
	store  store.Store
	engine *lifecycle.Engine
	now    func() time.Time
}

func New(st store.Store, engine *lifecycle.Engine) *Resolver {
	return &Resolver{store: st, engine: engine, now: func() time.Time { return time.Now().UTC() }}
}

// Detect returns the first existing lead the snapshot collides with: by phone,
// then by email, then by name with the same national digits. The snapshot's
// phone must already be normalised.
func (r *Resolver) Detect(ctx context.Context, tx store.Tx, s domain.LeadSnapshot) (*Match, error) {
	if s.Phone != "" {
		lead, err := tx.FindLeadByPhone(ctx, s.Phone)
		if err == nil {
			return &Match{Lead: lead, Reason: domain.MatchPhone}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	if s.Email != nil && strings.TrimSpace(*s.Email) != "" {
		lead, err := tx.FindLeadByEmail(ctx, strings.ToLower(strings.TrimSpace(*s.Email)))
		if err == nil {
			return &Match{Lead: lead, Reason: domain.MatchEmail}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	digits := phone.NationalDigits(s.Phone)
	if strings.TrimSpace(s.Name) == "" || digits == "" {
		return nil, nil
	}
	candidates, err := tx.FindLeadsByName(ctx, strings.TrimSpace(s.Name))
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if phone.NationalDigits(c.Phone) == digits {
			return &Match{Lead: c, Reason: domain.MatchNamePhone}, nil
		}
	}
	return nil, nil
}

// Quarantine records a pending duplicate of match. The matched lead is not touched.
func (r *Resolver) Quarantine(ctx context.Context, tx store.Tx, match Match, s domain.LeadSnapshot, batchID string) (domain.LeadDuplicate, error) {
	leadID := match.Lead.ID
	dup := domain.LeadDuplicate{
		ID:             uuid.New(),
		OriginalLeadID: &leadID,
		Snapshot:       s,
		MatchReason:    match.Reason,
		Status:         domain.DuplicatePending,
		ImportBatchID:  batchID,
		ImportedAt:     r.now(),
	}
	if err := tx.InsertDuplicate(ctx, dup); err != nil {
		return domain.LeadDuplicate{}, fmt.Errorf("failed to quarantine duplicate: %w", err)
	}
	return dup, nil
}

// Merge copies the snapshot into the original lead's empty fields. A resolved
// duplicate is returned unchanged.
func (r *Resolver) Merge(ctx context.Context, actor domain.Actor, id uuid.UUID) (transport.MergeResponse, error) {
	var (
		dup    domain.LeadDuplicate
		filled []string
	)
	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if dup, err = tx.GetDuplicateForUpdate(ctx, id); err != nil {
			return err
		}
		if dup.IsResolved() {
			return nil
		}
		if dup.OriginalLeadID == nil {
			return apperr.Gone(msgOriginalGone)
		}
		before, err := tx.GetLeadForUpdate(ctx, *dup.OriginalLeadID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Gone(msgOriginalGone)
		}
		if err != nil {
			return err
		}

		after := before
		filled = after.FillEmptyFrom(dup.Snapshot)
		if after.CapturedByID != nil && after.CaptureSupervisorID == nil {
			if p, err := tx.GetPersonnel(ctx, *after.CapturedByID); err == nil {
				after.CaptureSupervisorID = p.SupervisorID
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		note := fmt.Sprintf("Merged duplicate %s.", dup.ID)
		if len(filled) > 0 {
			note = fmt.Sprintf("Merged duplicate %s, filled: %s.", dup.ID, strings.Join(filled, ", "))
		}
		if _, err := r.engine.UpdateLead(ctx, tx, actor, before, after, note); err != nil {
			return err
		}

		dup.Resolve(domain.DuplicateMerged, actor, r.now())
		return tx.UpdateDuplicate(ctx, dup)
	})
	if err != nil {
		return transport.MergeResponse{}, store.AsAppError(err, msgDuplicateNotFound)
	}
	if filled == nil {
		filled = []string{}
	}
	return transport.MergeResponse{Duplicate: transport.ToDuplicateResponse(dup), FilledFields: filled}, nil
}

// Ignore marks a pending duplicate ignored. A resolved duplicate is returned unchanged.
func (r *Resolver) Ignore(ctx context.Context, actor domain.Actor, id uuid.UUID) (transport.DuplicateResponse, error) {
	var dup domain.LeadDuplicate
	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if dup, err = tx.GetDuplicateForUpdate(ctx, id); err != nil {
			return err
		}
		if dup.IsResolved() {
			return nil
		}
		dup.Resolve(domain.DuplicateIgnored, actor, r.now())
		return tx.UpdateDuplicate(ctx, dup)
	})
	if err != nil {
		return transport.DuplicateResponse{}, store.AsAppError(err, msgDuplicateNotFound)
	}
	return transport.ToDuplicateResponse(dup), nil
}

func (r *Resolver) Get(ctx context.Context, id uuid.UUID) (transport.DuplicateResponse, error) {
	var dup domain.LeadDuplicate
	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		dup, err = tx.GetDuplicate(ctx, id)
		return err
	})
	if err != nil {
		return transport.DuplicateResponse{}, store.AsAppError(err, msgDuplicateNotFound)
	}
	return transport.ToDuplicateResponse(dup), nil
}

// List returns duplicates newest import first.
func (r *Resolver) List(ctx context.Context, req transport.ListDuplicatesRequest) (transport.DuplicateListResponse, error) {
	filter := store.DuplicateFilter{Limit: req.Limit}
	if req.Status != "" {
		status, err := domain.ParseDuplicateStatus(req.Status)
		if err != nil {
			return transport.DuplicateListResponse{}, apperr.Validation(err.Error())
		}
		filter.Status = &status
	}

	var dups []domain.LeadDuplicate
	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		dups, err = tx.ListDuplicates(ctx, filter)
		return err
	})
	if err != nil {
		return transport.DuplicateListResponse{}, err
	}

	out := transport.DuplicateListResponse{Items: make([]transport.DuplicateResponse, 0, len(dups))}
	for _, d := range dups {
		out.Items = append(out.Items, transport.ToDuplicateResponse(d))
	}
	return out, nil
}
