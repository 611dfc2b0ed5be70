package handler

import (
	"net/http"

	"opc_crm_backend/internal/personnel/service"
	"opc_crm_backend/internal/personnel/transport"
	"opc_crm_backend/platform/httpkit"
	"opc_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid personnel id"
)

// Handler handles HTTP requests for OPC personnel.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// List handles GET /api/v1/opc-personnel?role=.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListPersonnelRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	out, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePersonnelRequest
	if !h.bind(c, &req) {
		return
	}

	out, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, out)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	out, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdatePersonnelRequest
	if !h.bind(c, &req) {
		return
	}

	out, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
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

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
