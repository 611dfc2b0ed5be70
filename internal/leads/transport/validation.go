package transport

import (
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the lead-specific tags to val.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("classification", func(fl playground.FieldLevel) bool {
		_, err := domain.ParseClassification(fl.Field().String())
		return err == nil
	})
}
