package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"expense-ledger/internal/dto"
	"expense-ledger/internal/errors"
	"expense-ledger/internal/services"

	"github.com/labstack/echo/v4"
)

// AdminHandler handles administrative ledger endpoints
type AdminHandler struct {
	expenseService services.ExpenseServiceInterface
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(expenseService services.ExpenseServiceInterface) *AdminHandler {
	return &AdminHandler{expenseService: expenseService}
}

// DeleteExpense removes a single expense
// @Summary Delete expense (admin)
// @Tags Admin
// @Param id path int true "Expense ID"
// @Success 204 "Expense deleted"
// @Failure 400 {object} errors.ErrorResponse "EXPENSE_002 - Invalid expense ID"
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001 - Expense not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/admin/expenses/{id}/ [delete]
func (h *AdminHandler) DeleteExpense(c echo.Context) error {
	id, err := parseExpenseID(c)
	if err != nil {
		return SendError(c, errors.ExpenseInvalidID, errors.WithDetails(err.Error()))
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), id); err != nil {
		if stderrors.Is(err, services.ErrExpenseNotFound) {
			return SendError(c, errors.ExpenseNotFound)
		}
		return SendSystemError(c, err)
	}

	h.audit(c, "admin_delete_expense", "expense_id", id)
	return c.NoContent(http.StatusNoContent)
}

// ResetLedger removes every expense
// @Summary Reset ledger (admin)
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.ResetLedgerResponse "Number of removed expenses"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /api/admin/expenses/ [delete]
func (h *AdminHandler) ResetLedger(c echo.Context) error {
	deleted, err := h.expenseService.ResetLedger(c.Request().Context())
	if err != nil {
		return SendSystemError(c, err)
	}

	h.audit(c, "admin_reset_ledger", "deleted", deleted)
	return c.JSON(http.StatusOK, dto.ResetLedgerResponse{Deleted: deleted})
}

func (h *AdminHandler) audit(c echo.Context, action string, args ...any) {
	attrs := append([]any{
		"action", action,
		"trace_id", getTraceID(c),
		"ip_address", c.RealIP(),
		"user_agent", c.Request().UserAgent(),
	}, args...)
	slog.Info("Administrative action", attrs...)
}
