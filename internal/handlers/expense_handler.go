package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"expense-ledger/internal/dto"
	"expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/services"
	"expense-ledger/internal/validation"

	"github.com/labstack/echo/v4"
)

const (
	// IdempotencyKeyHeader carries the client token for safe create retries
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader tells the client whether a keyed create was replayed
	IdempotencyReplayHeader = "X-Idempotency"
)

// ExpenseHandler handles expense ledger endpoints
type ExpenseHandler struct {
	expenseService services.ExpenseServiceInterface
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenseService services.ExpenseServiceInterface) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpense records a new expense
// @Summary Create expense
// @Description Records an expense. Requests repeated with the same Idempotency-Key return the stored expense.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client token for safe retries (max 255 chars)"
// @Param request body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse "Expense created"
// @Success 200 {object} dto.ExpenseResponse "Expense replayed for a known idempotency key"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid expense"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/expenses/ [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
	if len(key) > models.MaxIdempotencyKeyLength {
		return SendValidationError(c, map[string]string{
			"idempotency_key": "must be at most 255 characters long",
		})
	}

	var req dto.CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		if handled, replayErr := h.replayExisting(c, key); handled {
			return replayErr
		}
		if field := bindErrorField(err); field != "" {
			return SendValidationError(c, map[string]string{field: "has an invalid value"})
		}
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Request body must be a JSON object"))
	}

	if err := c.Validate(&req); err != nil {
		fieldErrors := validation.FieldErrors(err)
		if fieldErrors == nil {
			return SendSystemError(c, err)
		}
		// a stored expense wins over a payload that no longer validates
		if handled, replayErr := h.replayExisting(c, key); handled {
			return replayErr
		}
		return SendValidationError(c, fieldErrors)
	}

	expense, err := req.ToModel(key)
	if err != nil {
		return SendValidationError(c, map[string]string{"date": "must be a valid date in YYYY-MM-DD format"})
	}

	result, replayed, err := h.expenseService.CreateExpense(c.Request().Context(), expense)
	if err != nil {
		var validationErr *models.ValidationError
		if stderrors.As(err, &validationErr) {
			return SendValidationError(c, validationErr.Fields)
		}
		return SendSystemError(c, err)
	}

	return respondWithExpense(c, result, replayed, key != "")
}

// ListExpenses returns one page of the ledger
// @Summary List expenses
// @Description Lists expenses newest first, 100 per page, optionally filtered by category
// @Tags Expenses
// @Produce json
// @Param category query string false "Category filter, 'all' for none"
// @Param sort query string false "date_desc (default) or date_asc"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} dto.ListExpensesResponse "Page of expenses"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_006 - Invalid page number"
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_003 - Page past the last page"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/expenses/ [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	req, err := bindListRequest(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	page, err := parsePage(req.Page)
	if err != nil {
		return SendError(c, errors.ValidationInvalidPage, errors.WithField("page", err.Error()))
	}

	filters := models.NewExpenseFilters(req.Category, req.Sort)
	result, err := h.expenseService.ListExpenses(c.Request().Context(), filters, page)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrPageNotFound):
			return SendError(c, errors.ExpensePageNotFound)
		case stderrors.Is(err, services.ErrInvalidPage):
			return SendError(c, errors.ValidationInvalidPage)
		default:
			return SendSystemError(c, err)
		}
	}

	response := dto.ListExpensesResponse{
		Count:   result.Count,
		Results: dto.ToExpenseResponses(result.Expenses),
	}
	if result.HasNext() {
		next := pageURL(c, result.Page+1)
		response.Next = &next
	}
	if result.HasPrevious() {
		previous := pageURL(c, result.Page-1)
		response.Previous = &previous
	}

	return c.JSON(http.StatusOK, response)
}

// GetTotal sums the expenses matching the filters
// @Summary Expense total
// @Description Sums every expense matching the category filter, independent of pagination
// @Tags Expenses
// @Produce json
// @Param category query string false "Category filter, 'all' for none"
// @Success 200 {object} dto.TotalResponse "Total of matching expenses"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/expenses/total/ [get]
func (h *ExpenseHandler) GetTotal(c echo.Context) error {
	req, err := bindListRequest(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	total, err := h.expenseService.GetTotal(c.Request().Context(), models.NewExpenseFilters(req.Category, req.Sort))
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToTotalResponse(total))
}

// GetCategorySummary breaks the matching expenses down by category
// @Summary Category breakdown
// @Description Totals per category, largest first
// @Tags Expenses
// @Produce json
// @Param category query string false "Category filter, 'all' for none"
// @Success 200 {array} dto.CategorySummaryResponse "Per-category totals"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/expenses/summary/ [get]
func (h *ExpenseHandler) GetCategorySummary(c echo.Context) error {
	req, err := bindListRequest(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	summaries, err := h.expenseService.GetCategorySummary(c.Request().Context(), models.NewExpenseFilters(req.Category, req.Sort))
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToCategorySummaryResponses(summaries))
}

// ListCategories returns the supported categories
// @Summary List categories
// @Tags Expenses
// @Produce json
// @Success 200 {array} models.CategoryOption "Supported categories"
// @Router /api/expenses/categories/ [get]
func (h *ExpenseHandler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.expenseService.ListCategories())
}

// GetExpense returns a single expense
// @Summary Get expense
// @Tags Expenses
// @Produce json
// @Param id path int true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse "Expense"
// @Failure 400 {object} errors.ErrorResponse "EXPENSE_002 - Invalid expense ID"
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001 - Expense not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/expenses/{id}/ [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	id, err := parseExpenseID(c)
	if err != nil {
		return SendError(c, errors.ExpenseInvalidID, errors.WithDetails(err.Error()))
	}

	expense, err := h.expenseService.GetExpense(c.Request().Context(), id)
	if err != nil {
		if stderrors.Is(err, services.ErrExpenseNotFound) {
			return SendError(c, errors.ExpenseNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// replayExisting answers with the stored expense when key is already taken.
// handled is false when the request should continue normally.
func (h *ExpenseHandler) replayExisting(c echo.Context, key string) (handled bool, err error) {
	if key == "" {
		return false, nil
	}

	existing, err := h.expenseService.FindByIdempotencyKey(c.Request().Context(), key)
	if err != nil {
		return true, SendSystemError(c, err)
	}
	if existing == nil {
		return false, nil
	}
	return true, respondWithExpense(c, existing, true, true)
}

func respondWithExpense(c echo.Context, expense *models.Expense, replayed, keyed bool) error {
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	if keyed {
		c.Response().Header().Set(IdempotencyReplayHeader, idempotencyHeaderValue(replayed))
	}
	return c.JSON(status, dto.ToExpenseResponse(expense))
}

func idempotencyHeaderValue(replayed bool) string {
	if replayed {
		return "True"
	}
	return "False"
}

func bindListRequest(c echo.Context) (dto.ListExpensesRequest, error) {
	var req dto.ListExpensesRequest
	err := (&echo.DefaultBinder{}).BindQueryParams(c, &req)
	return req, err
}
