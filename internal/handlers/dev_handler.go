package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"expense-ledger/internal/errors"
	"expense-ledger/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultGenerateCount = 100
	maxGenerateCount     = 1000
	defaultGenerateDays  = 30
	maxGenerateDays      = 365
)

// DevHandler handles development-only endpoints
// These endpoints should only be available in development environments
type DevHandler struct {
	expenseService services.ExpenseServiceInterface
	generator      services.ExpenseGeneratorInterface
	now            func() time.Time
}

// NewDevHandler creates a new development handler
func NewDevHandler(expenseService services.ExpenseServiceInterface, generator services.ExpenseGeneratorInterface) *DevHandler {
	return &DevHandler{
		expenseService: expenseService,
		generator:      generator,
		now:            time.Now,
	}
}

// GenerateTestData fills the ledger with realistic sample expenses
//
// Method: POST /api/dev/expenses/generate
// Environment: Development only
//
// Query parameters:
//   - count: Number of expenses to generate (default: 100, max: 1000)
//   - days: Number of days of history to generate (default: 30, max: 365)
//
// Success Response: 200 OK
//   - message: Success message
//   - expenses_created: Number of expenses stored
//   - date_range: First and last day of the generated history
func (h *DevHandler) GenerateTestData(c echo.Context) error {
	count := clamp(getIntQueryParam(c, "count", defaultGenerateCount), 1, maxGenerateCount)
	days := clamp(getIntQueryParam(c, "days", defaultGenerateDays), 1, maxGenerateDays)

	endDate := h.now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	created := 0
	for _, expense := range h.generator.GenerateExpenses(startDate, endDate, count) {
		if _, _, err := h.expenseService.CreateExpense(c.Request().Context(), expense); err != nil {
			slog.Warn("Failed to store generated expense", "error", err, "trace_id", getTraceID(c))
			continue
		}
		created++
	}

	if created == 0 {
		return SendError(c, errors.SystemDatabaseError, errors.WithDetails("No generated expense could be stored"))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":          "test data generated successfully",
		"expenses_created": created,
		"date_range": map[string]string{
			"start": startDate.Format("2006-01-02"),
			"end":   endDate.Format("2006-01-02"),
		},
	})
}

// Helper function to get integer query parameters
func getIntQueryParam(c echo.Context, key string, defaultValue int) int {
	valueStr := c.QueryParam(key)
	if valueStr == "" {
		return defaultValue
	}

	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}

	return value
}

func clamp(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
