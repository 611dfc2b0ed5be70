// Package apperr provides the typed errors returned by CRM services.
// The HTTP layer maps each Kind onto a status code; services never pick status codes themselves.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound indicates a lead, appointment or other record does not exist.
	KindNotFound
	// KindValidation indicates invalid input data (per request or per import row).
	KindValidation
	// KindConflict indicates a collision with existing state, e.g. a phone already registered.
	KindConflict
	KindForbidden
	KindUnauthorized
	KindBadRequest
	// KindInternal covers state-consistency failures that rolled the transaction back.
	KindInternal
	// KindGone indicates a referenced record existed but was removed, e.g. a duplicate's original lead.
	KindGone
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindNotFound:     "not_found",
	KindValidation:   "validation",
	KindConflict:     "conflict",
	KindForbidden:    "forbidden",
	KindUnauthorized: "unauthorized",
	KindBadRequest:   "bad_request",
	KindInternal:     "internal",
	KindGone:         "gone",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
	Details any    // Additional details for response (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation and returns the same error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches response details and returns the same error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Internal(message string) *Error {
	return New(KindInternal, message)
}

func Gone(message string) *Error {
	return New(KindGone, message)
}

// GetKind extracts the error kind anywhere in the wrap chain.
// Returns KindUnknown if no *Error is found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
