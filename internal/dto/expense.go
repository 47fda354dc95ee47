package dto

import (
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Expense Request DTOs

// CreateExpenseRequest represents the body of a create expense request.
// Amount accepts both JSON strings ("150.50") and numbers (150.5).
type CreateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required,money_amount"`
	Category    string           `json:"category" validate:"required,expense_category"`
	Description string           `json:"description" validate:"required,not_blank,trimmed_max=500"`
	Date        string           `json:"date" validate:"required,iso_date"`
}

// ListExpensesRequest represents query parameters shared by list and aggregate endpoints
type ListExpensesRequest struct {
	Category string `query:"category"`
	Sort     string `query:"sort"`
	Page     string `query:"page"`
}

// ToModel converts a validated request into an expense ready for persistence
func (r *CreateExpenseRequest) ToModel(idempotencyKey string) (*models.Expense, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Category:    models.Category(r.Category),
		Description: r.Description,
		Date:        date,
	}
	if r.Amount != nil {
		expense.Amount = *r.Amount
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		expense.IdempotencyKey = &key
	}
	expense.Normalize()
	return expense, nil
}

// Expense Response DTOs

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          int64       `json:"id"`
	Amount      string      `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        models.Date `json:"date"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ListExpensesResponse is the page-number pagination envelope
type ListExpensesResponse struct {
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []ExpenseResponse `json:"results"`
}

// TotalResponse represents the aggregate total of the filtered view
type TotalResponse struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
	Count    int64  `json:"count"`
}

// CategorySummaryResponse represents one row of the category breakdown
type CategorySummaryResponse struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Total    string `json:"total"`
	Count    int64  `json:"count"`
}

// ResetLedgerResponse reports how many expenses an administrative reset removed
type ResetLedgerResponse struct {
	Deleted int64 `json:"deleted"`
}

// HealthResponse is returned by the liveness endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ToExpenseResponse converts an expense model to its API representation
func ToExpenseResponse(expense *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          expense.ID,
		Amount:      expense.FormattedAmount(),
		Category:    string(expense.Category),
		Description: expense.Description,
		Date:        expense.Date,
		CreatedAt:   expense.CreatedAt,
	}
}

// ToExpenseResponses converts a slice of expenses, never returning nil
func ToExpenseResponses(expenses []models.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, ToExpenseResponse(&expenses[i]))
	}
	return responses
}

// ToTotalResponse converts an aggregate total to its API representation
func ToTotalResponse(total *models.ExpenseTotal) TotalResponse {
	return TotalResponse{
		Total:    total.Total.StringFixed(models.AmountDecimalPlaces),
		Currency: total.Currency,
		Count:    total.Count,
	}
}

// ToCategorySummaryResponses converts category breakdown rows, never returning nil
func ToCategorySummaryResponses(summaries []models.CategorySummary) []CategorySummaryResponse {
	responses := make([]CategorySummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, CategorySummaryResponse{
			Category: string(summary.Category),
			Label:    summary.Category.Label(),
			Total:    summary.TotalAmount.StringFixed(models.AmountDecimalPlaces),
			Count:    summary.ExpenseCount,
		})
	}
	return responses
}
