package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request with its outcome and latency.
// It must run inside RequestID so the trace id is available.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler write the response so the logged status is final
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(req.Context(), level, "HTTP request",
				"trace_id", GetTraceID(c),
				"method", req.Method,
				"path", req.URL.Path,
				"route", c.Path(),
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes_out", c.Response().Size,
				"remote_ip", c.RealIP(),
			)

			return nil
		}
	}
}
