package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidDate   ErrorCode = "VALIDATION_005"
	ValidationInvalidPage   ErrorCode = "VALIDATION_006"
)

// Expense error codes (EXPENSE_*)
const (
	ExpenseNotFound     ErrorCode = "EXPENSE_001"
	ExpenseInvalidID    ErrorCode = "EXPENSE_002"
	ExpensePageNotFound ErrorCode = "EXPENSE_003"
)

// Routing error codes (ROUTE_*)
const (
	RouteNotFound         ErrorCode = "ROUTE_001"
	RouteMethodNotAllowed ErrorCode = "ROUTE_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidDate:   "Invalid date, use YYYY-MM-DD",
	ValidationInvalidPage:   "Invalid page number",

	// Expense errors
	ExpenseNotFound:     "Expense not found",
	ExpenseInvalidID:    "Invalid expense ID",
	ExpensePageNotFound: "Invalid page.",

	// Routing errors
	RouteNotFound:         "Resource not found",
	RouteMethodNotAllowed: "Method not allowed",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemConfigurationError: "System configuration error",
	SystemUnexpectedError:    "An unexpected error occurred",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
