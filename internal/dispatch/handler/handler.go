package handler

import (
	"net/http"

	"opc_crm_backend/internal/dispatch/service"
	"opc_crm_backend/internal/dispatch/transport"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidID = "invalid appointment id"

// Handler serves the operator diagnostics for visit delivery.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/appointments/:id/visit-dispatch", h.Trigger)
	rg.GET("/appointments/:id/visit-dispatches", h.List)
}

// Trigger handles POST /api/v1/admin/appointments/:id/visit-dispatch.
// A rejected delivery is still 200; the body carries the failed attempt.
func (h *Handler) Trigger(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	res, err := h.svc.Deliver(c.Request.Context(), id, domain.DispatchManual)
	if httpkit.HandleError(c, err) {
		return
	}

	out := transport.TriggerDispatchResponse{}
	if res.Dispatch != nil {
		d := transport.ToVisitDispatchResponse(*res.Dispatch)
		out.Dispatch = &d
		out.Delivered = res.Dispatch.Status == domain.DispatchSucceeded
	}
	httpkit.OK(c, out)
}

// List handles GET /api/v1/admin/appointments/:id/visit-dispatches.
func (h *Handler) List(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	items, err := h.svc.ListDispatches(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	out := transport.ListDispatchesResponse{Items: make([]transport.VisitDispatchResponse, 0, len(items))}
	for _, d := range items {
		out.Items = append(out.Items, transport.ToVisitDispatchResponse(d))
	}
	httpkit.OK(c, out)
}
