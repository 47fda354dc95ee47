package models

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MaxDescriptionLength    = 500
	MaxIdempotencyKeyLength = 255
	AmountDecimalPlaces     = 2
	// amount is stored as decimal(10,2)
	maxAmountIntegerDigits  = 8
)

var (
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrAmountPrecision       = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge        = errors.New("amount must have at most 8 digits before the decimal point")
	ErrDescriptionRequired   = errors.New("description cannot be empty")
	ErrDescriptionTooLong    = errors.New("description must be at most 500 characters")
	ErrInvalidCategory       = errors.New("category is not one of the supported categories")
	ErrCategoryRequired      = errors.New("category is required")
	ErrDateRequired          = errors.New("date is required")
	ErrIdempotencyKeyTooLong = errors.New("idempotency key must be at most 255 characters")
	maxAmount                = decimal.New(1, maxAmountIntegerDigits)
)

// Expense is a single ledger entry
type Expense struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	IdempotencyKey *string         `gorm:"type:varchar(255);uniqueIndex:idx_expenses_idempotency_key" json:"-"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Category       Category        `gorm:"type:varchar(50);not null;default:'other';index:idx_expenses_category" json:"category"`
	Description    string          `gorm:"type:varchar(500);not null" json:"description"`
	Date           Date            `gorm:"not null;index:idx_expenses_date" json:"date"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

// ValidationError carries per-field messages for a rejected expense
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: err.Error()}}
}

// BeforeCreate hook for Expense
func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	e.Normalize()

	if e.Category == "" {
		e.Category = CategoryOther
	}

	now := tx.NowFunc()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	return e.Validate()
}

// BeforeUpdate hook for Expense
func (e *Expense) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = tx.NowFunc()
	return e.Validate()
}

// Normalize trims the description and turns a blank idempotency key into no key
func (e *Expense) Normalize() {
	e.Description = strings.TrimSpace(e.Description)
	if e.IdempotencyKey != nil && strings.TrimSpace(*e.IdempotencyKey) == "" {
		e.IdempotencyKey = nil
	}
}

// Validate checks the invariants every persisted expense must hold
func (e *Expense) Validate() error {
	fields := make(map[string]string)

	if err := ValidateAmount(e.Amount); err != nil {
		fields["amount"] = err.Error()
	}

	if err := ValidateDescription(e.Description); err != nil {
		fields["description"] = err.Error()
	}

	if e.Category == "" {
		fields["category"] = ErrCategoryRequired.Error()
	} else if !e.Category.Valid() {
		fields["category"] = ErrInvalidCategory.Error()
	}

	if e.Date.IsZero() {
		fields["date"] = ErrDateRequired.Error()
	}

	if e.IdempotencyKey != nil && len(*e.IdempotencyKey) > MaxIdempotencyKeyLength {
		fields["idempotency_key"] = ErrIdempotencyKeyTooLong.Error()
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateAmount enforces a strictly positive amount that fits decimal(10,2)
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountDecimalPlaces)) {
		return ErrAmountPrecision
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// ValidateDescription enforces a non-blank description of bounded length
func ValidateDescription(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return ErrDescriptionRequired
	}
	if utf8.RuneCountInString(trimmed) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// HasIdempotencyKey reports whether the expense was created under a client key
func (e *Expense) HasIdempotencyKey() bool {
	return e.IdempotencyKey != nil && *e.IdempotencyKey != ""
}

// FormattedAmount returns the amount with exactly two fractional digits
func (e *Expense) FormattedAmount() string {
	return e.Amount.StringFixed(AmountDecimalPlaces)
}

// TableName returns the table name for Expense
func (e *Expense) TableName() string {
	return "expenses"
}
