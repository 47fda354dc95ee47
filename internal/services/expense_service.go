package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrPageNotFound    = errors.New("invalid page")
	ErrInvalidPage     = errors.New("page must be a positive integer")
)

const (
	metricExpensesCreated = "expenses_created_total"
	metricExpenseQueries  = "expense_queries_total"
	metricCreateDuration  = "expense_create"
	metricLedgerSize      = "expense_ledger_size"

	resultCreated  = "created"
	resultReplayed = "replayed"
	resultRejected = "rejected"
	resultFailed   = "failed"

	publishTimeout = 5 * time.Second
)

type expenseService struct {
	expenseRepo repositories.ExpenseRepositoryInterface
	metrics     MetricsRecorderInterface
	publisher   EventPublisherInterface
	currency    string
	pageSize    int
	logger      *slog.Logger
	audit       *AuditLogger
}

// NewExpenseService creates the expense ledger service. metrics and publisher may be nil.
func NewExpenseService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	metrics MetricsRecorderInterface,
	publisher EventPublisherInterface,
	ledger config.LedgerConfig,
	logger *slog.Logger,
) ExpenseServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := ledger.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &expenseService{
		expenseRepo: expenseRepo,
		metrics:     metrics,
		publisher:   publisher,
		currency:    ledger.Currency,
		pageSize:    pageSize,
		logger:      logger,
		audit:       NewAuditLogger(logger),
	}
}

// CreateExpense creates an expense, replaying the stored one when the
// idempotency key was already used
func (s *expenseService) CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, bool, error) {
	start := time.Now()
	defer func() {
		s.recordTime(metricCreateDuration, time.Since(start))
	}()

	if expense == nil {
		return nil, false, errors.New("expense cannot be nil")
	}
	expense.Normalize()

	if expense.HasIdempotencyKey() {
		existing, err := s.FindByIdempotencyKey(ctx, *expense.IdempotencyKey)
		if err != nil {
			s.countCreate(resultFailed)
			return nil, false, err
		}
		if existing != nil {
			s.audit.LogIdempotentReplay(ctx, *expense.IdempotencyKey, existing.ID, false)
			s.countCreate(resultReplayed)
			return existing, true, nil
		}
	}

	if err := expense.Validate(); err != nil {
		s.countCreate(resultRejected)
		return nil, false, err
	}

	err := s.expenseRepo.Create(ctx, expense)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrIdempotencyKeyExists) && expense.HasIdempotencyKey():
		// a concurrent request with the same key won the insert
		winner, lookupErr := s.expenseRepo.GetByIdempotencyKey(ctx, *expense.IdempotencyKey)
		if lookupErr != nil {
			s.countCreate(resultFailed)
			return nil, false, fmt.Errorf("failed to load expense for idempotency key: %w", lookupErr)
		}
		s.audit.LogIdempotentReplay(ctx, *expense.IdempotencyKey, winner.ID, true)
		s.countCreate(resultReplayed)
		return winner, true, nil
	default:
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			s.countCreate(resultRejected)
			return nil, false, validationErr
		}
		s.countCreate(resultFailed)
		return nil, false, fmt.Errorf("failed to create expense: %w", err)
	}

	s.countCreate(resultCreated)
	s.audit.LogExpenseCreated(ctx, expense.ID, string(expense.Category), expense.FormattedAmount(), expense.IdempotencyKey)
	s.publishCreated(ctx, expense)

	return expense, false, nil
}

// FindByIdempotencyKey returns nil without error when no expense holds the key
func (s *expenseService) FindByIdempotencyKey(ctx context.Context, key string) (*models.Expense, error) {
	existing, err := s.expenseRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return existing, nil
}

// ListExpenses returns one fixed-size page of the filtered, ordered ledger
func (s *expenseService) ListExpenses(ctx context.Context, filters models.ExpenseFilters, page int) (*models.ExpensePage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	s.countQuery("list")

	expenses, count, err := s.expenseRepo.List(ctx, filters.WithPage(page, s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	result := &models.ExpensePage{
		Expenses: expenses,
		Count:    count,
		Page:     page,
		PageSize: s.pageSize,
	}
	if filters.Category == nil {
		s.recordGauge(metricLedgerSize, float64(count))
	}
	if page > result.LastPage() {
		return nil, ErrPageNotFound
	}
	if result.Expenses == nil {
		result.Expenses = []models.Expense{}
	}

	return result, nil
}

// GetTotal sums every expense matching the filters
func (s *expenseService) GetTotal(ctx context.Context, filters models.ExpenseFilters) (*models.ExpenseTotal, error) {
	s.countQuery("total")

	filters.Offset, filters.Limit = 0, 0
	total, count, err := s.expenseRepo.Total(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to total expenses: %w", err)
	}

	return &models.ExpenseTotal{
		Total:    total,
		Count:    count,
		Currency: s.currency,
	}, nil
}

// GetCategorySummary breaks the matching expenses down by category
func (s *expenseService) GetCategorySummary(ctx context.Context, filters models.ExpenseFilters) ([]models.CategorySummary, error) {
	s.countQuery("summary")

	filters.Offset, filters.Limit = 0, 0
	summaries, err := s.expenseRepo.CategorySummary(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize expenses: %w", err)
	}
	if summaries == nil {
		summaries = []models.CategorySummary{}
	}
	return summaries, nil
}

func (s *expenseService) ListCategories() []models.CategoryOption {
	return models.CategoryOptions()
}

func (s *expenseService) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	s.countQuery("get")

	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.audit.LogExpenseDeleted(ctx, id)
	return nil
}

func (s *expenseService) ResetLedger(ctx context.Context) (int64, error) {
	deleted, err := s.expenseRepo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset ledger: %w", err)
	}

	s.recordGauge(metricLedgerSize, 0)
	s.audit.LogLedgerReset(ctx, deleted)
	return deleted, nil
}

func (s *expenseService) publishCreated(ctx context.Context, expense *models.Expense) {
	if s.publisher == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishExpenseCreated(publishCtx, expense); err != nil {
		s.logger.Error("failed to publish expense created event",
			"error", err,
			"expense_id", expense.ID,
		)
	}
}

func (s *expenseService) countCreate(result string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(metricExpensesCreated, map[string]string{"result": result})
	}
}

func (s *expenseService) countQuery(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(metricExpenseQueries, map[string]string{"operation": operation})
	}
}

func (s *expenseService) recordTime(name string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordProcessingTime(name, duration)
	}
}

func (s *expenseService) recordGauge(name string, value float64) {
	if s.metrics != nil {
		s.metrics.RecordGauge(name, value, nil)
	}
}
