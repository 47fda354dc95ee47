package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expense-ledger/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrIdempotencyKeyExists = errors.New("expense with idempotency key already exists")
)

const pgUniqueViolation = "23505"

// expenseRepository implements ExpenseRepositoryInterface
type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepositoryInterface {
	return &expenseRepository{
		db: db,
	}
}

// Create creates a new expense
func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return errors.New("expense cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrIdempotencyKeyExists
		}
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return validationErr
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by ID
func (r *expenseRepository) GetByID(ctx context.Context, id int64) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}

	return &expense, nil
}

// GetByIdempotencyKey retrieves an expense by idempotency key
func (r *expenseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense by idempotency key: %w", err)
	}

	return &expense, nil
}

// List returns one page of expenses matching the filters together with the
// total number of matching expenses
func (r *expenseRepository) List(ctx context.Context, filters models.ExpenseFilters) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := r.filtered(ctx, filters).Order(filters.OrderClause())
	if filters.Limit > 0 {
		query = query.Offset(filters.Offset).Limit(filters.Limit)
	}

	if err := query.Find(&expenses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, total, nil
}

// Total sums the amount of every expense matching the filters, ignoring paging
func (r *expenseRepository) Total(ctx context.Context, filters models.ExpenseFilters) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}

	err := r.filtered(ctx, filters).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to total expenses: %w", err)
	}

	return row.Total.Round(models.AmountDecimalPlaces), row.Count, nil
}

// CategorySummary groups the matching expenses by category, largest total first
func (r *expenseRepository) CategorySummary(ctx context.Context, filters models.ExpenseFilters) ([]models.CategorySummary, error) {
	var summaries []models.CategorySummary

	err := r.filtered(ctx, filters).
		Select("category, COUNT(*) AS expense_count, COALESCE(SUM(amount), 0) AS total_amount").
		Group("category").
		Order("total_amount DESC, category ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get category summary: %w", err)
	}

	for i := range summaries {
		summaries[i].TotalAmount = summaries[i].TotalAmount.Round(models.AmountDecimalPlaces)
	}

	return summaries, nil
}

// Delete removes a single expense
func (r *expenseRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Expense{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// DeleteAll empties the ledger and returns the number of removed expenses
func (r *expenseRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Expense{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expenses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *expenseRepository) filtered(ctx context.Context, filters models.ExpenseFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Expense{})
	if filters.Category != nil {
		query = query.Where("category = ?", string(*filters.Category))
	}
	return query
}

// isDuplicateKeyError reports whether err is a unique constraint violation
// from either supported store
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, pgUniqueViolation)
}
