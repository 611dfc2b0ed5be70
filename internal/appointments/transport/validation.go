package transport

import (
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the appointment_status tag to val.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("appointment_status", func(fl playground.FieldLevel) bool {
		_, err := domain.ParseAppointmentStatus(fl.Field().String())
		return err == nil
	})
}
