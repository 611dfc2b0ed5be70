package httpkit

import (
	"errors"
	"net/http"

	"opc_crm_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps domain errors to HTTP responses and reports whether err was non-nil.
// Untyped errors are treated as internal and their text is not exposed.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		if domainErr.Kind == apperr.KindInternal {
			_ = c.Error(err)
		}
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	return true
}
