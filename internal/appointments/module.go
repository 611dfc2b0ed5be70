// Package appointments provides the appointment bounded context.
package appointments

import (
	"opc_crm_backend/internal/appointments/handler"
	"opc_crm_backend/internal/appointments/service"
	"opc_crm_backend/internal/appointments/transport"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/validator"
)

// Module is the appointments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates and initializes the appointments module.
func NewModule(st store.Store, engine *lifecycle.Engine, notifier lifecycle.VisitNotifier, val *validator.Validator) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}
	svc := service.New(st, engine, notifier)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes mounts /appointments and /leads/:id/appointments.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
