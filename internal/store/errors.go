package store

import (
	"errors"

	"opc_crm_backend/platform/apperr"
)

// AsAppError maps the store sentinels onto apperr kinds. Other errors pass through.
func AsAppError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, ErrPhoneTaken):
		return apperr.Conflict("a lead with this phone number already exists")
	default:
		return err
	}
}
