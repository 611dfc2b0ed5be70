// Package memory is an in-process Store. Transactions run serially on a copy of the
// state that replaces the committed state only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/store"

	"github.com/google/uuid"
)

type state struct {
	leads        map[uuid.UUID]domain.Lead
	appointments map[uuid.UUID]domain.Appointment
	actions      map[uuid.UUID]domain.Action
	duplicates   map[uuid.UUID]domain.LeadDuplicate
	personnel    map[uuid.UUID]domain.OPCPersonnel
	users        map[uuid.UUID]domain.User
	dispatches   map[uuid.UUID]domain.VisitDispatch
	seq          int64
}

func newState() *state {
	return &state{
		leads:        map[uuid.UUID]domain.Lead{},
		appointments: map[uuid.UUID]domain.Appointment{},
		actions:      map[uuid.UUID]domain.Action{},
		duplicates:   map[uuid.UUID]domain.LeadDuplicate{},
		personnel:    map[uuid.UUID]domain.OPCPersonnel{},
		users:        map[uuid.UUID]domain.User{},
		dispatches:   map[uuid.UUID]domain.VisitDispatch{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		leads:        cloneMap(s.leads),
		appointments: cloneMap(s.appointments),
		actions:      cloneMap(s.actions),
		duplicates:   cloneMap(s.duplicates),
		personnel:    cloneMap(s.personnel),
		users:        cloneMap(s.users),
		dispatches:   cloneMap(s.dispatches),
		seq:          s.seq,
	}
}

// Store is a memory-backed store.Store.
type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
}

func New() *Store {
	return &Store{state: newState(), faults: map[string]error{}}
}

var _ store.Store = (*Store)(nil)

// FailOn makes every later call to the named Tx method return err.
// Pass a nil err to clear the fault.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, method)
		return
	}
	s.faults[method] = err
}

// SeedUser adds a user outside any transaction.
func (s *Store) SeedUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s, st: s.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

type tx struct {
	store *Store
	st    *state
}

func (t *tx) fault(method string) error {
	return t.store.faults[method]
}

func (t *tx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	nested := &tx{store: t.store, st: t.st.clone()}
	if err := fn(ctx, nested); err != nil {
		return err
	}
	t.st = nested.st
	return nil
}

// Leads

func (t *tx) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	if err := t.fault("GetLead"); err != nil {
		return domain.Lead{}, err
	}
	lead, ok := t.st.leads[id]
	if !ok {
		return domain.Lead{}, store.ErrNotFound
	}
	return lead, nil
}

func (t *tx) GetLeadForUpdate(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	if err := t.fault("GetLeadForUpdate"); err != nil {
		return domain.Lead{}, err
	}
	return t.GetLead(ctx, id)
}

func (t *tx) FindLeadByPhone(_ context.Context, phone string) (domain.Lead, error) {
	for _, lead := range t.st.leads {
		if lead.Phone == phone {
			return lead, nil
		}
	}
	return domain.Lead{}, store.ErrNotFound
}

func (t *tx) FindLeadByEmail(_ context.Context, email string) (domain.Lead, error) {
	var matches []domain.Lead
	for _, lead := range t.st.leads {
		if lead.Email != nil && strings.EqualFold(*lead.Email, email) {
			matches = append(matches, lead)
		}
	}
	if len(matches) == 0 {
		return domain.Lead{}, store.ErrNotFound
	}
	sortLeads(matches)
	return matches[0], nil
}

func (t *tx) FindLeadsByName(_ context.Context, name string) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, lead := range t.st.leads {
		if strings.EqualFold(strings.TrimSpace(lead.Name), strings.TrimSpace(name)) {
			out = append(out, lead)
		}
	}
	sortLeads(out)
	return out, nil
}

func (t *tx) ListLeadsByMedium(_ context.Context, media []string, onlyNonOPC bool) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, lead := range t.st.leads {
		if onlyNonOPC && lead.IsOPCLead {
			continue
		}
		if lead.Medium == nil {
			continue
		}
		for _, m := range media {
			if strings.EqualFold(strings.TrimSpace(*lead.Medium), m) {
				out = append(out, lead)
				break
			}
		}
	}
	sortLeads(out)
	return out, nil
}

func (t *tx) InsertLead(_ context.Context, lead domain.Lead) error {
	if err := t.fault("InsertLead"); err != nil {
		return err
	}
	if t.phoneTaken(lead.Phone, lead.ID) {
		return store.ErrPhoneTaken
	}
	t.st.leads[lead.ID] = lead
	return nil
}

func (t *tx) UpdateLead(_ context.Context, lead domain.Lead) error {
	if err := t.fault("UpdateLead"); err != nil {
		return err
	}
	if _, ok := t.st.leads[lead.ID]; !ok {
		return store.ErrNotFound
	}
	if t.phoneTaken(lead.Phone, lead.ID) {
		return store.ErrPhoneTaken
	}
	t.st.leads[lead.ID] = lead
	return nil
}

func (t *tx) DeleteLead(_ context.Context, id uuid.UUID) error {
	if err := t.fault("DeleteLead"); err != nil {
		return err
	}
	if _, ok := t.st.leads[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.leads, id)
	return nil
}

func (t *tx) phoneTaken(phone string, except uuid.UUID) bool {
	for id, lead := range t.st.leads {
		if id != except && lead.Phone == phone {
			return true
		}
	}
	return false
}

func sortLeads(leads []domain.Lead) {
	sort.Slice(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.Before(leads[j].CreatedAt)
		}
		return leads[i].ID.String() < leads[j].ID.String()
	})
}

// Appointments

func (t *tx) GetAppointment(_ context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, ok := t.st.appointments[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (t *tx) ListAppointmentsByLead(_ context.Context, leadID uuid.UUID) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, appt := range t.st.appointments {
		if appt.LeadID == leadID {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.After(out[j].ScheduledAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (t *tx) CountAppointmentsByLead(ctx context.Context, leadID uuid.UUID) (int, error) {
	appts, err := t.ListAppointmentsByLead(ctx, leadID)
	return len(appts), err
}

func (t *tx) InsertAppointment(_ context.Context, appt domain.Appointment) error {
	if err := t.fault("InsertAppointment"); err != nil {
		return err
	}
	if _, ok := t.st.leads[appt.LeadID]; !ok {
		return store.ErrNotFound
	}
	t.st.appointments[appt.ID] = appt
	return nil
}

func (t *tx) UpdateAppointment(_ context.Context, appt domain.Appointment) error {
	if err := t.fault("UpdateAppointment"); err != nil {
		return err
	}
	current, ok := t.st.appointments[appt.ID]
	if !ok {
		return store.ErrNotFound
	}
	appt.EverConfirmed = appt.EverConfirmed || current.EverConfirmed
	t.st.appointments[appt.ID] = appt
	return nil
}

func (t *tx) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	if err := t.fault("DeleteAppointment"); err != nil {
		return err
	}
	if _, ok := t.st.appointments[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.appointments, id)
	return nil
}

func (t *tx) DeleteAppointmentsByLead(_ context.Context, leadID uuid.UUID) error {
	for id, appt := range t.st.appointments {
		if appt.LeadID == leadID {
			delete(t.st.appointments, id)
		}
	}
	return nil
}

// Actions

func (t *tx) InsertAction(_ context.Context, action domain.Action) (domain.Action, error) {
	if err := t.fault("InsertAction"); err != nil {
		return domain.Action{}, err
	}
	t.st.seq++
	action.Seq = t.st.seq
	t.st.actions[action.ID] = action
	return action, nil
}

func (t *tx) listActions(match func(domain.Action) bool) []domain.Action {
	var out []domain.Action
	for _, a := range t.st.actions {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func (t *tx) ListActionsByLead(_ context.Context, leadID uuid.UUID) ([]domain.Action, error) {
	return t.listActions(func(a domain.Action) bool {
		return a.LeadID != nil && *a.LeadID == leadID
	}), nil
}

func (t *tx) ListActionsByAppointment(_ context.Context, appointmentID uuid.UUID) ([]domain.Action, error) {
	return t.listActions(func(a domain.Action) bool {
		return a.AppointmentID != nil && *a.AppointmentID == appointmentID
	}), nil
}

func (t *tx) DeleteActionsByLead(_ context.Context, leadID uuid.UUID) error {
	if err := t.fault("DeleteActionsByLead"); err != nil {
		return err
	}
	for id, a := range t.st.actions {
		if a.LeadID != nil && *a.LeadID == leadID {
			delete(t.st.actions, id)
		}
	}
	return nil
}

// AllActions returns every stored action, newest first. Test helper.
func (s *Store) AllActions() []domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tx{store: s, st: s.state}
	return t.listActions(func(domain.Action) bool { return true })
}

// Duplicates

func (t *tx) GetDuplicate(_ context.Context, id uuid.UUID) (domain.LeadDuplicate, error) {
	dup, ok := t.st.duplicates[id]
	if !ok {
		return domain.LeadDuplicate{}, store.ErrNotFound
	}
	return dup, nil
}

func (t *tx) GetDuplicateForUpdate(ctx context.Context, id uuid.UUID) (domain.LeadDuplicate, error) {
	return t.GetDuplicate(ctx, id)
}

func (t *tx) ListDuplicates(_ context.Context, filter store.DuplicateFilter) ([]domain.LeadDuplicate, error) {
	var out []domain.LeadDuplicate
	for _, d := range t.st.duplicates {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ImportedAt.After(out[j].ImportedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (t *tx) InsertDuplicate(_ context.Context, dup domain.LeadDuplicate) error {
	if err := t.fault("InsertDuplicate"); err != nil {
		return err
	}
	t.st.duplicates[dup.ID] = dup
	return nil
}

func (t *tx) UpdateDuplicate(_ context.Context, dup domain.LeadDuplicate) error {
	if err := t.fault("UpdateDuplicate"); err != nil {
		return err
	}
	if _, ok := t.st.duplicates[dup.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.duplicates[dup.ID] = dup
	return nil
}

func (t *tx) DetachDuplicates(_ context.Context, leadID uuid.UUID) error {
	for id, d := range t.st.duplicates {
		if d.OriginalLeadID != nil && *d.OriginalLeadID == leadID {
			d.OriginalLeadID = nil
			t.st.duplicates[id] = d
		}
	}
	return nil
}

// Personnel

func (t *tx) GetPersonnel(_ context.Context, id uuid.UUID) (domain.OPCPersonnel, error) {
	p, ok := t.st.personnel[id]
	if !ok {
		return domain.OPCPersonnel{}, store.ErrNotFound
	}
	return p, nil
}

func (t *tx) FindPersonnelByName(_ context.Context, name string) (domain.OPCPersonnel, error) {
	for _, p := range t.st.personnel {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return domain.OPCPersonnel{}, store.ErrNotFound
}

func (t *tx) ListPersonnel(_ context.Context, role *domain.PersonnelRole) ([]domain.OPCPersonnel, error) {
	var out []domain.OPCPersonnel
	for _, p := range t.st.personnel {
		if role != nil && p.Role != *role {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) InsertPersonnel(_ context.Context, p domain.OPCPersonnel) error {
	t.st.personnel[p.ID] = p
	return nil
}

func (t *tx) UpdatePersonnel(_ context.Context, p domain.OPCPersonnel) error {
	if _, ok := t.st.personnel[p.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.personnel[p.ID] = p
	return nil
}

func (t *tx) DeletePersonnel(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.personnel[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.personnel, id)
	for pid, p := range t.st.personnel {
		if p.SupervisorID != nil && *p.SupervisorID == id {
			p.SupervisorID = nil
			t.st.personnel[pid] = p
		}
	}
	for lid, lead := range t.st.leads {
		changed := false
		if lead.CapturedByID != nil && *lead.CapturedByID == id {
			lead.CapturedByID = nil
			changed = true
		}
		if lead.CaptureSupervisorID != nil && *lead.CaptureSupervisorID == id {
			lead.CaptureSupervisorID = nil
			changed = true
		}
		if changed {
			t.st.leads[lid] = lead
		}
	}
	for aid, appt := range t.st.appointments {
		if appt.AttendingPersonnelID != nil && *appt.AttendingPersonnelID == id {
			appt.AttendingPersonnelID = nil
			t.st.appointments[aid] = appt
		}
	}
	return nil
}

func (t *tx) CountSubordinates(_ context.Context, supervisorID uuid.UUID) (int, error) {
	n := 0
	for _, p := range t.st.personnel {
		if p.SupervisorID != nil && *p.SupervisorID == supervisorID {
			n++
		}
	}
	return n, nil
}

// Users

func (t *tx) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (t *tx) ListActiveUsers(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range t.st.users {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Dispatches

func (t *tx) InsertDispatch(_ context.Context, d domain.VisitDispatch) error {
	if err := t.fault("InsertDispatch"); err != nil {
		return err
	}
	t.st.dispatches[d.ID] = d
	return nil
}

func (t *tx) HasSucceededDispatch(_ context.Context, correlationID string) (bool, error) {
	for _, d := range t.st.dispatches {
		if d.CorrelationID == correlationID && d.Status == domain.DispatchSucceeded {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) ListDispatchesByAppointment(_ context.Context, appointmentID uuid.UUID) ([]domain.VisitDispatch, error) {
	var out []domain.VisitDispatch
	for _, d := range t.st.dispatches {
		if d.AppointmentID == appointmentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
