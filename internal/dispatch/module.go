// Package dispatch provides the visit notification module: the post-commit
// notifier used by lead and appointment services and the operator endpoints.
package dispatch

import (
	"opc_crm_backend/internal/dispatch/handler"
	"opc_crm_backend/internal/dispatch/service"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/scheduler"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/logger"
)

// Config combines the settings the module reads.
type Config interface {
	config.DispatchConfig
	config.RedisConfig
}

// Module is the visit dispatch module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	Service  *service.Service
	Notifier lifecycle.VisitNotifier
	queue    *scheduler.Client
}

// NewModule wires the webhook client and the notifier selected by VISIT_DISPATCH_MODE.
func NewModule(st store.Store, cfg Config, log *logger.Logger) (*Module, error) {
	var sender service.Sender
	if cfg.IsVisitDispatchEnabled() {
		sender = service.NewWebhookClient(cfg.GetVisitWebhookURL(), cfg.GetVisitWebhookToken(), cfg.GetVisitWebhookTimeout())
	} else {
		log.Warn("visit webhook not configured; completed visits will not be sent")
	}
	svc := service.New(st, sender, cfg.GetVisitDefaultProject(), log)

	m := &Module{
		handler: handler.New(svc),
		Service: svc,
	}

	switch cfg.GetVisitDispatchMode() {
	case config.DispatchModeQueue:
		queue, err := scheduler.NewClient(cfg, cfg.GetVisitDispatchMaxRetry())
		if err != nil {
			return nil, err
		}
		m.queue = queue
		m.Notifier = service.NewQueueNotifier(queue, log)
	default:
		m.Notifier = service.NewInlineNotifier(svc, log)
	}
	return m, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "dispatch"
}

// RegisterRoutes mounts the operator endpoints under /api/v1/admin.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

// Close releases the queue connection, if any.
func (m *Module) Close() error {
	if m.queue == nil {
		return nil
	}
	return m.queue.Close()
}

var _ apphttp.Module = (*Module)(nil)
