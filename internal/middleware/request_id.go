package middleware

import (
	"regexp"

	"expense-ledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// TraceIDHeader is the header name for the trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// client supplied trace ids end up in logs, so only plain tokens are accepted
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID is a middleware that generates a unique trace ID for each request
// and sets it in the response header, the echo context and the request context.
// A well-formed incoming X-Trace-ID is propagated unchanged.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(TraceIDHeader)
			if !traceIDPattern.MatchString(traceID) {
				traceID = uuid.New().String()
			}

			c.Set(TraceIDContextKey, traceID)
			c.Response().Header().Set(TraceIDHeader, traceID)

			req := c.Request()
			c.SetRequest(req.WithContext(services.WithCorrelationID(req.Context(), traceID)))
			return next(c)
		}
	}
}

// GetTraceID extracts the trace ID from the Echo context
// Returns empty string if not found
func GetTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
