package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"expense-ledger/internal/errors"
	"expense-ledger/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API errors counter metric
	apiErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of API errors by code, endpoint, and status",
		},
		[]string{"code", "endpoint", "status"},
	)
)

// CustomHTTPErrorHandler is a custom error handler for Echo that formats errors
// as standardized error responses and logs them appropriately
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = "unknown"
	}

	var errorResponse *errors.ErrorResponse
	var httpStatus int

	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		errorCode := mapHTTPStatusToErrorCode(echoErr.Code)
		opts := []errors.ErrorOption{}
		// framework messages are only surfaced for client errors
		if echoErr.Code < http.StatusInternalServerError {
			opts = append(opts, errors.WithDetails(fmt.Sprintf("%v", echoErr.Message)))
		}

		errorResponse = errors.NewErrorResponse(errorCode, traceID, opts...)
		httpStatus = echoErr.Code
	} else if fieldErrors := validation.FieldErrors(err); fieldErrors != nil {
		errorResponse = errors.NewValidationError(fieldErrors, traceID)
		httpStatus = http.StatusBadRequest
	} else {
		errorResponse, _ = errors.WrapSystemError(err, traceID)
		httpStatus = errorResponse.GetHTTPStatus()
	}

	logLevel := slog.LevelWarn
	if httpStatus >= 500 {
		logLevel = slog.LevelError
	}

	slog.Log(c.Request().Context(), logLevel, "HTTP error occurred",
		"trace_id", traceID,
		"error_code", errorResponse.Error.Code,
		"status", httpStatus,
		"message", errorResponse.Error.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"error", err.Error(),
	)

	apiErrorsTotal.WithLabelValues(
		errorResponse.Error.Code,
		endpointLabel(c),
		fmt.Sprintf("%d", httpStatus),
	).Inc()

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpStatus)
	} else {
		err = c.JSON(httpStatus, errorResponse)
	}
	if err != nil {
		slog.Error("Failed to send error response",
			"trace_id", traceID,
			"error", err.Error(),
		)
	}
}

// mapHTTPStatusToErrorCode maps HTTP status codes to error codes
func mapHTTPStatusToErrorCode(status int) errors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return errors.ValidationInvalidFormat
	case http.StatusNotFound:
		return errors.RouteNotFound
	case http.StatusMethodNotAllowed:
		return errors.RouteMethodNotAllowed
	case http.StatusUnprocessableEntity:
		return errors.ValidationGeneral
	case http.StatusTooManyRequests:
		return errors.SystemRateLimitExceeded
	case http.StatusInternalServerError:
		return errors.SystemInternalError
	case http.StatusServiceUnavailable:
		return errors.SystemServiceUnavailable
	default:
		return errors.SystemUnexpectedError
	}
}

// endpointLabel keeps metric cardinality bounded for unmatched routes
func endpointLabel(c echo.Context) string {
	if path := c.Path(); path != "" {
		return path
	}
	return "unmatched"
}
