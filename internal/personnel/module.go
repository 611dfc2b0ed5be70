// Package personnel manages the OPC field staff that capture leads.
package personnel

import (
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/personnel/handler"
	"opc_crm_backend/internal/personnel/service"
	"opc_crm_backend/internal/personnel/transport"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/validator"
)

// Module is the personnel module implementing http.Module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

func NewModule(st store.Store, val *validator.Validator) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}
	svc := service.New(st)
	return &Module{handler: handler.New(svc, val), Service: svc}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "personnel"
}

// RegisterRoutes mounts routes under /api/v1/opc-personnel.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/opc-personnel"))
}

var _ apphttp.Module = (*Module)(nil)
