// Package duplicates provides the review queue for imported leads that collided
// with existing ones.
package duplicates

import (
	"opc_crm_backend/internal/duplicates/handler"
	"opc_crm_backend/internal/duplicates/service"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/platform/validator"
)

// Module is the duplicates module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	Resolver *service.Resolver
}

func NewModule(st store.Store, engine *lifecycle.Engine, val *validator.Validator) *Module {
	resolver := service.New(st, engine)
	return &Module{
		handler:  handler.New(resolver, val),
		Resolver: resolver,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "duplicates"
}

// RegisterRoutes mounts routes under /api/v1/lead-duplicates.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/lead-duplicates"))
}

var _ apphttp.Module = (*Module)(nil)
