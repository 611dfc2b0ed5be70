// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their json names.
// Domain-specific validation rules can be registered using RegisterValidation.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors flattens validation errors into field -> failed tag.
// Returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
