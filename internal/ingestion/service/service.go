// Package service imports lead spreadsheets. Each row runs in its own savepoint
// so one bad row never aborts the batch.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dupservice "opc_crm_backend/internal/duplicates/service"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/ingestion/transport"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/obs"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/logger"
	"opc_crm_backend/platform/phone"
	"opc_crm_backend/platform/sanitize"
	"opc_crm_backend/platform/validator"

	"github.com/google/uuid"
)

const minPhoneDigits = 6

var captureDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
}

// Options bounds an import.
type Options struct {
	Region  string
	MaxRows int
}

// Request is one uploaded file.
type Request struct {
	FileName    string
	ContentType string
	Data        []byte
	Mode        string
}

type Importer struct {
	store    store.Store
	engine   *lifecycle.Engine
	resolver *dupservice.Resolver
	notifier lifecycle.VisitNotifier
	archiver Archiver
	val      *validator.Validator
	log      *logger.Logger
	opts     Options
	now      func() time.Time
}

// New creates an importer. archiver may be nil when object storage is not configured.
func New(st store.Store, engine *lifecycle.Engine, resolver *dupservice.Resolver, notifier lifecycle.VisitNotifier, archiver Archiver, val *validator.Validator, log *logger.Logger, opts Options) *Importer {
	return &Importer{
		store:    st,
		engine:   engine,
		resolver: resolver,
		notifier: notifier,
		archiver: archiver,
		val:      val,
		log:      log,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// batch carries the per-import state shared by every row.
type batch struct {
	id     string
	actor  domain.Actor
	mode   string
	agents []domain.User
	next   int
}

func (b *batch) nextAgent() *uuid.UUID {
	agent := b.agents[b.next%len(b.agents)]
	b.next++
	return &agent.ID
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeDuplicated
)

// Import processes every row of the upload in one transaction.
func (s *Importer) Import(ctx context.Context, actor domain.Actor, req Request) (transport.ImportSummary, error) {
	mode := req.Mode
	if mode == "" {
		mode = transport.ModeQuarantine
	}
	if mode != transport.ModeQuarantine && mode != transport.ModeUpsert {
		return transport.ImportSummary{}, apperr.Validation(fmt.Sprintf("unknown import mode %q", req.Mode))
	}

	records, err := Parse(req.FileName, req.Data)
	if err != nil {
		return transport.ImportSummary{}, err
	}
	if s.opts.MaxRows > 0 && len(records) > s.opts.MaxRows {
		return transport.ImportSummary{}, apperr.Validation(fmt.Sprintf("file has %d rows, the limit is %d", len(records), s.opts.MaxRows))
	}

	b := &batch{id: newBatchID(s.now()), actor: actor, mode: mode}
	summary := transport.ImportSummary{
		BatchID:   b.id,
		TotalRows: len(records),
		Errors:    []transport.RowError{},
	}
	summary.ArchiveKey = s.archive(ctx, b.id, req)

	var effects lifecycle.Effects
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		agents, err := tx.ListActiveUsers(ctx)
		if err != nil {
			return err
		}
		if len(agents) == 0 {
			return apperr.Validation("no active agents to assign imported leads to")
		}
		b.agents = agents

		for _, rec := range records {
			var (
				result outcome
				rowFx  lifecycle.Effects
			)
			err := tx.Savepoint(ctx, func(ctx context.Context, tx store.Tx) error {
				var err error
				result, rowFx, err = s.importRow(ctx, tx, b, rec)
				return err
			})
			if err != nil {
				summary.Errored++
				summary.Errors = append(summary.Errors, transport.RowError{Row: rec.Row, Message: s.rowMessage(b.id, rec.Row, err)})
				continue
			}
			effects.Merge(rowFx)
			switch result {
			case outcomeCreated:
				summary.Created++
			case outcomeUpdated:
				summary.Updated++
			case outcomeDuplicated:
				summary.Duplicated++
			}
		}
		return nil
	})
	if err != nil {
		return transport.ImportSummary{}, err
	}

	obs.IngestionRows.WithLabelValues("created").Add(float64(summary.Created))
	obs.IngestionRows.WithLabelValues("updated").Add(float64(summary.Updated))
	obs.IngestionRows.WithLabelValues("duplicated").Add(float64(summary.Duplicated))
	obs.IngestionRows.WithLabelValues("errored").Add(float64(summary.Errored))
	s.log.WithContext(ctx).ImportFinished(b.id, summary.TotalRows, summary.Created, summary.Updated, summary.Duplicated, summary.Errored)

	effects.Notify(ctx, s.notifier)
	return summary, nil
}

func (s *Importer) importRow(ctx context.Context, tx store.Tx, b *batch, rec Record) (outcome, lifecycle.Effects, error) {
	var none lifecycle.Effects

	snapshot, err := s.snapshot(ctx, tx, rec)
	if err != nil {
		return 0, none, err
	}

	match, err := s.resolver.Detect(ctx, tx, snapshot)
	if err != nil {
		return 0, none, err
	}
	if match != nil {
		if b.mode == transport.ModeUpsert && match.Reason == domain.MatchPhone {
			return s.upsert(ctx, tx, b, match.Lead, snapshot)
		}
		if _, err := s.resolver.Quarantine(ctx, tx, *match, snapshot, b.id); err != nil {
			return 0, none, err
		}
		return outcomeDuplicated, none, nil
	}

	lead := domain.Lead{
		Phone:           snapshot.Phone,
		Name:            snapshot.Name,
		Email:           snapshot.Email,
		Project:         snapshot.Project,
		Medium:          snapshot.Medium,
		District:        snapshot.District,
		Location:        snapshot.Location,
		Notes:           snapshot.Notes,
		OPCNotes:        snapshot.OPCNotes,
		CapturedByID:    snapshot.CapturedByID,
		CaptureDate:     snapshot.CaptureDate,
		AssignedAgentID: b.nextAgent(),
		Classification:  domain.ClassificationNew,
	}
	if snapshot.Classification != nil {
		lead.Classification = *snapshot.Classification
	}
	if err := defaultSupervisor(ctx, tx, &lead); err != nil {
		return 0, none, err
	}
	if err := s.engine.CreateLead(ctx, tx, b.actor, &lead); err != nil {
		return 0, none, err
	}
	return outcomeCreated, none, nil
}

// upsert overwrites the phone-matched lead with the row's non-empty values.
// The lead keeps its assigned agent.
func (s *Importer) upsert(ctx context.Context, tx store.Tx, b *batch, existing domain.Lead, snapshot domain.LeadSnapshot) (outcome, lifecycle.Effects, error) {
	before, err := tx.GetLeadForUpdate(ctx, existing.ID)
	if err != nil {
		return 0, lifecycle.Effects{}, err
	}
	after := before
	after.OverwriteFrom(snapshot)
	if err := defaultSupervisor(ctx, tx, &after); err != nil {
		return 0, lifecycle.Effects{}, err
	}
	if after.AssignedAgentID == nil {
		after.AssignedAgentID = b.nextAgent()
	}
	effects, err := s.engine.UpdateLead(ctx, tx, b.actor, before, after, fmt.Sprintf("Updated by import %s.", b.id))
	if err != nil {
		return 0, lifecycle.Effects{}, err
	}
	return outcomeUpdated, effects, nil
}

// snapshot validates a row and resolves its references.
func (s *Importer) snapshot(ctx context.Context, tx store.Tx, rec Record) (domain.LeadSnapshot, error) {
	var missing []string
	for _, col := range requiredColumns {
		if rec.Get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return domain.LeadSnapshot{}, apperr.Validation("missing " + strings.Join(missing, ", "))
	}

	snap := domain.LeadSnapshot{
		Name:     sanitize.Text(rec.Get(colName)),
		Phone:    phone.NormalizeE164In(rec.Get(colPhone), s.opts.Region),
		Project:  optional(rec.Get(colProject)),
		Medium:   optional(rec.Get(colMedium)),
		District: optional(rec.Get(colDistrict)),
		Location: optional(rec.Get(colLocation)),
		Notes:    optional(rec.Get(colNotes)),
		OPCNotes: optional(rec.Get(colOPCNotes)),
	}
	if snap.Name == "" {
		return snap, apperr.Validation("missing nombre")
	}
	if len(phone.Digits(snap.Phone)) < minPhoneDigits {
		return snap, apperr.Validation(fmt.Sprintf("invalid phone %q", rec.Get(colPhone)))
	}

	if email := strings.ToLower(rec.Get(colEmail)); email != "" {
		if err := s.val.Var(email, "email"); err != nil {
			return snap, apperr.Validation(fmt.Sprintf("invalid email %q", email))
		}
		snap.Email = &email
	}

	if raw := rec.Get(colClassification); raw != "" {
		c, err := domain.ParseClassification(raw)
		if err != nil {
			return snap, apperr.Validation(err.Error())
		}
		snap.Classification = &c
	}

	if name := rec.Get(colPersonnel); name != "" {
		p, err := tx.FindPersonnelByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return snap, apperr.Validation(fmt.Sprintf("unknown OPC personnel %q", name))
		}
		if err != nil {
			return snap, err
		}
		snap.CapturedByID = &p.ID
	}

	if raw := rec.Get(colCaptureDate); raw != "" {
		d, err := parseCaptureDate(raw)
		if err != nil {
			return snap, apperr.Validation(err.Error())
		}
		snap.CaptureDate = &d
	}
	return snap, nil
}

func (s *Importer) archive(ctx context.Context, batchID string, req Request) string {
	if s.archiver == nil {
		return ""
	}
	key, err := s.archiver.Archive(ctx, batchID, req.FileName, req.ContentType, req.Data)
	if err != nil {
		s.log.WithContext(ctx).Warn("failed to archive import file", "batch_id", batchID, "error", err)
		return ""
	}
	return key
}

// rowMessage exposes validation messages and hides store failures.
func (s *Importer) rowMessage(batchID string, row int, err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		return appErr.Message
	}
	if errors.Is(err, store.ErrPhoneTaken) {
		return "a lead with this phone number already exists"
	}
	s.log.Error("import row failed", "batch_id", batchID, "row", row, "error", err)
	return "could not save row"
}

func defaultSupervisor(ctx context.Context, tx store.Tx, lead *domain.Lead) error {
	if lead.CapturedByID == nil || lead.CaptureSupervisorID != nil {
		return nil
	}
	p, err := tx.GetPersonnel(ctx, *lead.CapturedByID)
	if err != nil {
		return err
	}
	lead.CaptureSupervisorID = p.SupervisorID
	return nil
}

func parseCaptureDate(raw string) (time.Time, error) {
	for _, layout := range captureDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid fecha_captacion %q", raw)
}

func optional(value string) *string {
	return sanitize.OptionalText(&value)
}
