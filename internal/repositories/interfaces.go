package repositories

import (
	"context"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// ExpenseRepositoryInterface defines the contract for expense repository operations
type ExpenseRepositoryInterface interface {
	// Create inserts a new expense. It returns ErrIdempotencyKeyExists when
	// another expense already holds the same idempotency key.
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id int64) (*models.Expense, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Expense, error)
	List(ctx context.Context, filters models.ExpenseFilters) ([]models.Expense, int64, error)
	Total(ctx context.Context, filters models.ExpenseFilters) (decimal.Decimal, int64, error)
	CategorySummary(ctx context.Context, filters models.ExpenseFilters) ([]models.CategorySummary, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}
