package service

import (
	"context"

	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// InlineNotifier delivers right after commit on the caller's goroutine.
type InlineNotifier struct {
	svc *Service
	log *logger.Logger
}

func NewInlineNotifier(svc *Service, log *logger.Logger) *InlineNotifier {
	return &InlineNotifier{svc: svc, log: log}
}

func (n *InlineNotifier) VisitCompleted(ctx context.Context, appointmentID uuid.UUID) {
	if !n.svc.Enabled() {
		n.log.Debug("visit dispatch disabled", "appointment_id", appointmentID.String())
		return
	}
	// The mutation has committed; a client disconnect must not abort delivery.
	ctx = context.WithoutCancel(ctx)
	if _, err := n.svc.Deliver(ctx, appointmentID, domain.DispatchAutomatic); err != nil {
		n.log.DispatchFailed(appointmentID.String(), domain.VisitCorrelationID(appointmentID), string(domain.DispatchAutomatic), err)
	}
}

// Enqueuer schedules a visit for the worker.
type Enqueuer interface {
	EnqueueVisitDispatch(ctx context.Context, appointmentID uuid.UUID, correlationID string) (bool, error)
}

// QueueNotifier hands completed visits to the asynq worker.
type QueueNotifier struct {
	queue Enqueuer
	log   *logger.Logger
}

func NewQueueNotifier(queue Enqueuer, log *logger.Logger) *QueueNotifier {
	return &QueueNotifier{queue: queue, log: log}
}

func (n *QueueNotifier) VisitCompleted(ctx context.Context, appointmentID uuid.UUID) {
	correlationID := domain.VisitCorrelationID(appointmentID)
	enqueued, err := n.queue.EnqueueVisitDispatch(context.WithoutCancel(ctx), appointmentID, correlationID)
	if err != nil {
		n.log.DispatchFailed(appointmentID.String(), correlationID, string(domain.DispatchAutomatic), err)
		return
	}
	if !enqueued {
		n.log.Debug("visit dispatch already queued", "correlation_id", correlationID)
	}
}

var (
	_ lifecycle.VisitNotifier = (*InlineNotifier)(nil)
	_ lifecycle.VisitNotifier = (*QueueNotifier)(nil)
)
