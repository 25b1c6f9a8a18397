// Package validator adapts go-playground/validator to echo's Validator
// interface.
package validator

import (
	validate "github.com/go-playground/validator/v10"

	domainerrors "bazaar/internal/domain/errors"
)

// Validator wraps a shared validate instance for echo.
type Validator struct {
	validate *validate.Validate
}

// New creates the request validator.
func New() *Validator {
	return &Validator{validate: validate.New()}
}

// Validate implements echo.Validator. Violations map onto the validation
// error of the application taxonomy so the error handler renders them as 400.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
