package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// CodesTestSuite defines the test suite for error codes
type CodesTestSuite struct {
	suite.Suite
}

// TestCodesTestSuite runs the test suite
func TestCodesTestSuite(t *testing.T) {
	suite.Run(t, new(CodesTestSuite))
}

func allCodes() []ErrorCode {
	return []ErrorCode{
		ValidationGeneral,
		ValidationRequiredField,
		ValidationInvalidFormat,
		ValidationOutOfRange,
		ValidationInvalidDate,
		ValidationInvalidPage,
		ExpenseNotFound,
		ExpenseInvalidID,
		ExpensePageNotFound,
		RouteNotFound,
		RouteMethodNotAllowed,
		SystemInternalError,
		SystemDatabaseError,
		SystemServiceUnavailable,
		SystemConfigurationError,
		SystemUnexpectedError,
		SystemRateLimitExceeded,
	}
}

// TestGetErrorMessage_ValidCode tests getting message for valid error codes
func (s *CodesTestSuite) TestGetErrorMessage_ValidCode() {
	testCases := []struct {
		name     string
		code     ErrorCode
		expected string
	}{
		{
			name:     "Validation General",
			code:     ValidationGeneral,
			expected: "Validation failed",
		},
		{
			name:     "Expense Not Found",
			code:     ExpenseNotFound,
			expected: "Expense not found",
		},
		{
			name:     "Expense Page Not Found",
			code:     ExpensePageNotFound,
			expected: "Invalid page.",
		},
		{
			name:     "System Internal Error",
			code:     SystemInternalError,
			expected: "An unexpected error occurred. Please contact support with trace ID",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			message := GetErrorMessage(tc.code)
			s.Equal(tc.expected, message)
		})
	}
}

// TestGetErrorMessage_InvalidCode tests getting message for invalid error code
func (s *CodesTestSuite) TestGetErrorMessage_InvalidCode() {
	message := GetErrorMessage("INVALID_CODE")
	s.Equal("An error occurred", message)
}

// TestIsValidErrorCode_ValidCodes tests validation of valid error codes
func (s *CodesTestSuite) TestIsValidErrorCode_ValidCodes() {
	for _, code := range allCodes() {
		s.Run(string(code), func() {
			s.True(IsValidErrorCode(code), "Expected %s to be valid", code)
		})
	}
}

// TestIsValidErrorCode_InvalidCode tests validation of invalid error code
func (s *CodesTestSuite) TestIsValidErrorCode_InvalidCode() {
	invalidCodes := []ErrorCode{
		"INVALID_001",
		"UNKNOWN_CODE",
		"",
		"EXPENSE_999",
	}

	for _, code := range invalidCodes {
		s.Run(string(code), func() {
			s.False(IsValidErrorCode(code), "Expected %s to be invalid", code)
		})
	}
}

// TestErrorCodeConstants_Uniqueness ensures all error codes are unique
func (s *CodesTestSuite) TestErrorCodeConstants_Uniqueness() {
	seen := make(map[ErrorCode]bool)
	for _, code := range allCodes() {
		s.False(seen[code], "Duplicate error code found: %s", code)
		seen[code] = true
	}
}

// TestErrorCodeConstants_Format ensures all error codes follow naming convention
func (s *CodesTestSuite) TestErrorCodeConstants_Format() {
	prefixes := []string{"VALIDATION_", "EXPENSE_", "ROUTE_", "SYSTEM_"}

	for _, code := range allCodes() {
		matched := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(string(code), prefix) {
				matched = true
				break
			}
		}
		s.True(matched, "Error code %s does not use a known prefix", code)
	}
}

// TestErrorMessages_OnlyDeclaredCodes keeps the message registry limited to codes the API emits
func (s *CodesTestSuite) TestErrorMessages_OnlyDeclaredCodes() {
	s.Len(errorMessages, len(allCodes()))

	expenseCodes := 0
	for code := range errorMessages {
		if strings.HasPrefix(string(code), "EXPENSE_") {
			expenseCodes++
		}
	}
	s.Equal(3, expenseCodes)
	s.Equal("EXPENSE_002", string(ExpenseInvalidID))
	s.Equal("EXPENSE_003", string(ExpensePageNotFound))
}
