package handler

import (
	"net/http"

	"opc_crm_backend/internal/duplicates/service"
	"opc_crm_backend/internal/duplicates/transport"
	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/platform/httpkit"
	"opc_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid duplicate id"
)

// Handler serves the duplicate review queue.
type Handler struct {
	resolver *service.Resolver
	val      *validator.Validator
}

func New(resolver *service.Resolver, val *validator.Validator) *Handler {
	return &Handler{resolver: resolver, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/merge", h.Merge)
	rg.POST("/:id/ignore", h.Ignore)
}

// List handles GET /api/v1/lead-duplicates?status=&limit=.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListDuplicatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	out, err := h.resolver.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	dup, err := h.resolver.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dup)
}

func (h *Handler) Merge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	out, err := h.resolver.Merge(c.Request.Context(), apphttp.Actor(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func (h *Handler) Ignore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	out, err := h.resolver.Ignore(c.Request.Context(), apphttp.Actor(identity), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
