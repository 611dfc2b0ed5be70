package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/internal/store/memory"
	"opc_crm_backend/platform/apperr"
	"opc_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	auth           string
	idempotencyKey string
	body           map[string]any
}

type fakeVisitServer struct {
	mu       sync.Mutex
	status   int
	requests []capturedRequest
	server   *httptest.Server
}

func newFakeVisitServer(t *testing.T, status int) *fakeVisitServer {
	t.Helper()
	f := &fakeVisitServer{status: status}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			auth:           r.Header.Get("Authorization"),
			idempotencyKey: r.Header.Get("Idempotency-Key"),
			body:           body,
		})
		status := f.status
		f.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeVisitServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func seedVisit(t *testing.T, st *memory.Store) (domain.Lead, domain.Appointment) {
	t.Helper()
	project := "LOMAS DEL SUR"
	medium := "Campo (Centros Comerciales)"
	district := "Miraflores"
	now := time.Date(2026, 5, 10, 16, 0, 0, 0, time.UTC)

	supervisor := domain.OPCPersonnel{ID: uuid.New(), Name: "Rosa Quispe", Role: domain.PersonnelSupervisor, Active: true}
	capturer := domain.OPCPersonnel{ID: uuid.New(), Name: "Luis Rojas", Role: domain.PersonnelField, SupervisorID: &supervisor.ID, Active: true}
	lead := domain.Lead{
		ID: uuid.New(), Phone: "+51987654321", Name: "Ana Torres", Project: &project, Medium: &medium,
		District: &district, Classification: domain.ClassificationAlreadyAttended, CapturedByID: &capturer.ID,
		CreatedAt: now, UpdatedAt: now,
	}
	appt := domain.Appointment{
		ID: uuid.New(), LeadID: lead.ID, ScheduledAt: now, Place: "Sala de ventas",
		Status: domain.AppointmentDone, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertPersonnel(ctx, supervisor); err != nil {
			return err
		}
		if err := tx.InsertPersonnel(ctx, capturer); err != nil {
			return err
		}
		if err := tx.InsertLead(ctx, lead); err != nil {
			return err
		}
		return tx.InsertAppointment(ctx, appt)
	}))
	return lead, appt
}

func newTestService(st store.Store, url string) *Service {
	log := logger.NewWithWriter("test", io.Discard)
	return New(st, NewWebhookClient(url, "s3cret", 5*time.Second), "OASIS 2 (AUCALLAMA)", log)
}

func TestDeliverSendsPayloadWithBearerAndIdempotencyKey(t *testing.T) {
	st := memory.New()
	_, appt := seedVisit(t, st)
	srv := newFakeVisitServer(t, http.StatusCreated)
	svc := newTestService(st, srv.server.URL)

	res, err := svc.Deliver(context.Background(), appt.ID, domain.DispatchAutomatic)
	require.NoError(t, err)
	require.NotNil(t, res.Dispatch)
	assert.Equal(t, domain.DispatchSucceeded, res.Dispatch.Status)
	require.NotNil(t, res.Dispatch.ResponseCode)
	assert.Equal(t, http.StatusCreated, *res.Dispatch.ResponseCode)

	require.Equal(t, 1, srv.count())
	req := srv.requests[0]
	assert.Equal(t, "Bearer s3cret", req.auth)
	assert.Equal(t, appt.CorrelationID(), req.idempotencyKey)
	assert.Equal(t, appt.CorrelationID(), req.body["id_presencia_crm"])
	assert.Equal(t, "campo_opc", req.body["medio_captacion"])
	assert.Equal(t, "presencial", req.body["modalidad"])
	assert.Equal(t, "LOMAS DEL SUR", req.body["proyecto_interes"])
	assert.Equal(t, "Luis Rojas", req.body["asesor_captacion_opc"])
	assert.Equal(t, "realizada", req.body["status_presencia"])

	cliente, ok := req.body["cliente"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TEMP-4321", cliente["numero_documento"])
	assert.Equal(t, "Miraflores", cliente["direccion"])
	assert.Nil(t, cliente["email_principal"])
}

func TestDeliverAutomaticSkipsAfterSuccess(t *testing.T) {
	st := memory.New()
	_, appt := seedVisit(t, st)
	srv := newFakeVisitServer(t, http.StatusOK)
	svc := newTestService(st, srv.server.URL)

	_, err := svc.Deliver(context.Background(), appt.ID, domain.DispatchAutomatic)
	require.NoError(t, err)

	res, err := svc.Deliver(context.Background(), appt.ID, domain.DispatchAutomatic)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, srv.count())

	res, err = svc.Deliver(context.Background(), appt.ID, domain.DispatchManual)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, srv.count())

	log, err := svc.ListDispatches(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Len(t, log, 2)
}

func TestDeliverRecordsRejectedAttempt(t *testing.T) {
	st := memory.New()
	_, appt := seedVisit(t, st)
	srv := newFakeVisitServer(t, http.StatusUnprocessableEntity)
	svc := newTestService(st, srv.server.URL)

	res, err := svc.Deliver(context.Background(), appt.ID, domain.DispatchAutomatic)
	require.NoError(t, err)
	require.NotNil(t, res.Dispatch)
	assert.Equal(t, domain.DispatchFailed, res.Dispatch.Status)
	require.NotNil(t, res.Dispatch.Error)
	assert.Contains(t, *res.Dispatch.Error, "422")

	// a failed attempt does not block the next automatic trigger
	_, err = svc.Deliver(context.Background(), appt.ID, domain.DispatchAutomatic)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.count())

	assert.ErrorIs(t, svc.DeliverQueued(context.Background(), appt.ID), ErrDeliveryFailed)
}

func TestDeliverUnknownAppointment(t *testing.T) {
	srv := newFakeVisitServer(t, http.StatusOK)
	svc := newTestService(memory.New(), srv.server.URL)

	_, err := svc.Deliver(context.Background(), uuid.New(), domain.DispatchManual)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, svc.DeliverQueued(context.Background(), uuid.New()))
	assert.Zero(t, srv.count())
}

func TestInlineNotifierSwallowsFailures(t *testing.T) {
	st := memory.New()
	_, appt := seedVisit(t, st)
	svc := newTestService(st, "http://127.0.0.1:1")
	notifier := NewInlineNotifier(svc, logger.NewWithWriter("test", io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notifier.VisitCompleted(ctx, appt.ID)

	log, err := svc.ListDispatches(context.Background(), appt.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, domain.DispatchFailed, log[0].Status)
}

type fakeEnqueuer struct {
	ids      []string
	enqueued map[string]bool
}

func (f *fakeEnqueuer) EnqueueVisitDispatch(_ context.Context, _ uuid.UUID, correlationID string) (bool, error) {
	f.ids = append(f.ids, correlationID)
	if f.enqueued[correlationID] {
		return false, nil
	}
	f.enqueued[correlationID] = true
	return true, nil
}

func TestQueueNotifierUsesCorrelationID(t *testing.T) {
	q := &fakeEnqueuer{enqueued: map[string]bool{}}
	notifier := NewQueueNotifier(q, logger.NewWithWriter("test", io.Discard))
	id := uuid.New()

	notifier.VisitCompleted(context.Background(), id)
	notifier.VisitCompleted(context.Background(), id)

	require.Len(t, q.ids, 2)
	assert.Equal(t, "CRM-"+id.String(), q.ids[0])
	assert.Len(t, q.enqueued, 1)
}
