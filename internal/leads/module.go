// Package leads provides the lead bounded context: CRUD, bulk reassignment and
// the per-lead audit trail.
package leads

import (
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/leads/handler"
	"opc_crm_backend/internal/leads/service"
	"opc_crm_backend/internal/leads/transport"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates and initializes the leads module.
func NewModule(st store.Store, engine *lifecycle.Engine, notifier lifecycle.VisitNotifier, region string, val *validator.Validator) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}
	svc := service.New(st, engine, notifier, region)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts lead routes under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
