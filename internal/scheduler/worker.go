package scheduler

import (
	"context"
	"fmt"

	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// VisitDeliverer delivers a queued visit notification. A returned error makes
// asynq retry the task within its MaxRetry budget.
type VisitDeliverer interface {
	DeliverQueued(ctx context.Context, appointmentID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	deliverer VisitDeliverer
	log       *logger.Logger
}

func NewWorker(cfg config.RedisConfig, deliverer VisitDeliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		deliverer: deliverer,
		log:       log,
	}

	mux.HandleFunc(TaskVisitDispatch, w.handleVisitDispatch)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (w *Worker) handleVisitDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseVisitDispatchPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	apptID, err := uuid.Parse(payload.AppointmentID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	return w.deliverer.DeliverQueued(ctx, apptID)
}
