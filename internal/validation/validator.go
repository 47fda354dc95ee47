package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"expense-ledger/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("money_amount", validateMoneyAmount)
	_ = v.RegisterValidation("expense_category", validateExpenseCategory)
	_ = v.RegisterValidation("not_blank", validateNotBlank)
	_ = v.RegisterValidation("trimmed_max", validateTrimmedMax)
	_ = v.RegisterValidation("iso_date", validateISODate)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates a struct and returns validator.ValidationErrors on failure
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// validateMoneyAmount validates a positive amount with at most 2 decimal
// places that fits decimal(10,2)
func validateMoneyAmount(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return models.ValidateAmount(amount) == nil
}

// validateExpenseCategory validates that the category is one of the fixed enumeration values
func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.IsValidCategory(fl.Field().String())
}

// validateNotBlank rejects strings made only of whitespace
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateTrimmedMax bounds the character count of a string once surrounding
// whitespace is removed
func validateTrimmedMax(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= limit
}

// validateISODate validates a YYYY-MM-DD calendar date
func validateISODate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

// FieldErrors converts validator errors into a field name to message map.
// It returns nil if err is not a validator.ValidationErrors.
func FieldErrors(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		if _, exists := fieldErrors[fieldErr.Field()]; exists {
			continue
		}
		fieldErrors[fieldErr.Field()] = FormatFieldError(fieldErr)
	}
	return fieldErrors
}

// FormatFieldError converts a validator.FieldError to a human-readable message
func FormatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "numeric":
		return "must be a valid number"
	case "money_amount":
		return "must be greater than zero with at most 2 decimal places and 8 integer digits"
	case "expense_category":
		return "must be one of: " + strings.Join(categoryValues(), ", ")
	case "not_blank":
		return "cannot be empty"
	case "trimmed_max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "iso_date":
		return "must be a valid date in YYYY-MM-DD format"
	default:
		return fmt.Sprintf("failed validation for '%s'", fe.Tag())
	}
}

func categoryValues() []string {
	categories := models.AllCategories()
	values := make([]string, 0, len(categories))
	for _, category := range categories {
		values = append(values, string(category))
	}
	return values
}
