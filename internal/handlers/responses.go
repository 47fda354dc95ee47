package handlers

import (
	"log/slog"
	"net/http"

	"expense-ledger/internal/errors"

	"github.com/labstack/echo/v4"
)

// STANDARDIZED ERROR HANDLING PATTERNS
//
// All handlers must use the following standardized error response functions:
//
// 1. SendError - For client errors and business rule errors (4xx responses)
//    Use cases:
//    - Malformed input: SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("..."))
//    - Not found errors: SendError(c, errors.ExpenseNotFound)
//    - Paging errors: SendError(c, errors.ExpensePageNotFound)
//
// 2. SendValidationError - For per-field validation failures (400 responses)
//
// 3. SendSystemError - For system/internal errors (500 responses)
//    Use cases:
//    - Database errors from repositories
//    - Service layer internal errors
//    - Unexpected errors that should not expose internal details to client
//
// DO NOT USE:
//    - echo.NewHTTPError() - Use SendError or SendSystemError instead
//    - Direct c.JSON() for errors - Use the helper functions
//    - return err without wrapping - Use SendSystemError to protect internal details

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// ErrorResponse is an alias for the standardized error response type
// Used by handler tests to decode error bodies
type ErrorResponse = errors.ErrorResponse

// Helper functions for creating standardized error responses in handlers
// These wrap the internal/errors package for convenience

// getTraceID extracts the trace ID from the Echo context
func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendValidationError sends a VALIDATION_001 response listing every rejected field
func SendValidationError(c echo.Context, fieldErrors map[string]string) error {
	errorResponse := errors.NewValidationError(fieldErrors, getTraceID(c))
	return c.JSON(http.StatusBadRequest, errorResponse)
}

// SendSystemError wraps a system error with generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, internalErr := errors.WrapSystemError(err, traceID)
	slog.Error("Request failed with system error",
		"trace_id", traceID,
		"method", c.Request().Method,
		"path", c.Path(),
		"error", internalErr,
	)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}
