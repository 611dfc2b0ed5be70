package handler

import (
	"net/http"

	"opc_crm_backend/internal/appointments/service"
	"opc_crm_backend/internal/appointments/transport"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/platform/httpkit"
	"opc_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid appointment id"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/actions", h.ListActions)
}

// RegisterLeadRoutes mounts the appointment reads nested under /leads.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/appointments", h.ListByLead)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	appt, err := h.svc.Create(c.Request.Context(), apphttp.Actor(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, appt)
}

func (h *Handler) Get(c *gin.Context) {
	apptID, ok := parseID(c, msgInvalidID)
	if !ok {
		return
	}

	appt, err := h.svc.Get(c.Request.Context(), apptID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

func (h *Handler) Update(c *gin.Context) {
	apptID, ok := parseID(c, msgInvalidID)
	if !ok {
		return
	}
	var req transport.UpdateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	appt, err := h.svc.Update(c.Request.Context(), apphttp.Actor(id), apptID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

// UpdateStatus handles PATCH /api/v1/appointments/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	apptID, ok := parseID(c, msgInvalidID)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	appt, err := h.svc.UpdateStatus(c.Request.Context(), apphttp.Actor(id), apptID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

func (h *Handler) Delete(c *gin.Context) {
	apptID, ok := parseID(c, msgInvalidID)
	if !ok {
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), apphttp.Actor(id), apptID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListByLead(c *gin.Context) {
	leadID, ok := parseID(c, msgInvalidLeadID)
	if !ok {
		return
	}

	out, err := h.svc.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) ListActions(c *gin.Context) {
	apptID, ok := parseID(c, msgInvalidID)
	if !ok {
		return
	}

	actions, err := h.svc.ListActions(c.Request.Context(), apptID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": actions})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseID(c *gin.Context, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.Nil, false
	}
	return id, true
}
