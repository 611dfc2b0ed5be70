package transport

import (
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("personnel_role", func(fl playground.FieldLevel) bool {
		_, err := domain.ParsePersonnelRole(fl.Field().String())
		return err == nil
	})
}
