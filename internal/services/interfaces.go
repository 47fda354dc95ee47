package services

import (
	"context"
	"time"

	"expense-ledger/internal/models"
)

// ExpenseServiceInterface defines the expense ledger operations
type ExpenseServiceInterface interface {
	// CreateExpense persists a new expense at most once per idempotency key.
	// replayed is true when an existing expense was returned instead.
	CreateExpense(ctx context.Context, expense *models.Expense) (result *models.Expense, replayed bool, err error)

	// FindByIdempotencyKey returns the expense created under key, or nil when none exists
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Expense, error)

	ListExpenses(ctx context.Context, filters models.ExpenseFilters, page int) (*models.ExpensePage, error)
	GetTotal(ctx context.Context, filters models.ExpenseFilters) (*models.ExpenseTotal, error)
	GetCategorySummary(ctx context.Context, filters models.ExpenseFilters) ([]models.CategorySummary, error)
	ListCategories() []models.CategoryOption
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// Administrative operations
	DeleteExpense(ctx context.Context, id int64) error
	ResetLedger(ctx context.Context) (int64, error)
}

// MetricsRecorderInterface provides metrics collection
type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

// ExpenseGeneratorInterface produces realistic sample expenses for development ledgers
type ExpenseGeneratorInterface interface {
	GenerateExpenses(startDate, endDate time.Time, count int) []*models.Expense
}

// EventPublisherInterface announces ledger changes to downstream consumers
type EventPublisherInterface interface {
	PublishExpenseCreated(ctx context.Context, expense *models.Expense) error
}
