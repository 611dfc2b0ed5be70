package handler

import (
	"net/http"

	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/leads/service"
	"opc_crm_backend/internal/leads/transport"
	"opc_crm_backend/platform/httpkit"
	"opc_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles HTTP requests for leads
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/reassign", h.Reassign)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/actions", h.ListActions)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), apphttp.Actor(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) Get(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), apphttp.Actor(id), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), apphttp.Actor(id), leadID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListActions handles GET /api/v1/leads/:id/actions.
func (h *Handler) ListActions(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}

	actions, err := h.svc.ListActions(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": actions})
}

// Reassign handles POST /api/v1/leads/reassign.
func (h *Handler) Reassign(c *gin.Context) {
	var req transport.ReassignLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	out, err := h.svc.Reassign(c.Request.Context(), apphttp.Actor(id), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}
