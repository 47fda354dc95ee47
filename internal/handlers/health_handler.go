package handlers

import (
	"context"
	"net/http"
	"time"

	"expense-ledger/internal/dto"
	"expense-ledger/internal/errors"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// DatabasePinger reports whether the backing store is reachable
type DatabasePinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckHandler handles the health check endpoints
type HealthCheckHandler struct {
	db DatabasePinger
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(db DatabasePinger) *HealthCheckHandler {
	return &HealthCheckHandler{db: db}
}

// Root reports that the API process is up
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "API is running"
// @Router / [get]
func (h *HealthCheckHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Message: "Expense Tracker API is running",
	})
}

// HealthCheck adds the health check endpoint
// @Summary Health check
// @Description Check API and database connectivity status
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,time=string} "Service is healthy"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - Service unavailable (database connection failed)"
// @Router /health [get]
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		return SendError(c, errors.SystemServiceUnavailable, errors.WithDetails("Database connection failed"))
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
