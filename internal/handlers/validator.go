package handlers

import (
	"expense-ledger/internal/validation"

	"github.com/labstack/echo/v4"
)

// CustomValidator implements echo.Validator interface
type CustomValidator struct {
	validator *validation.Validator
}

// NewValidator creates a new custom validator with the ledger's validation rules
func NewValidator() echo.Validator {
	return &CustomValidator{validator: validation.GetValidator()}
}

// Validate implements the echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}
