package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a completion failure by its likely cause.
type ErrorType string

const (
	ErrorTypeEndpoint  ErrorType = "endpoint"
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeModel     ErrorType = "model"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error is a structured completion error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError, so the retry package can
// check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured completion error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error and returns a structured Error.
// Consolidates classification so every client reports failures the same way.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var clsErr *Error
	if errors.As(err, &clsErr) {
		return clsErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Authentication failures are never retryable.
	if strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid x-api-key") {
		clsErr = NewError(ErrorTypeAuth, "authentication failed", false, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	// Wrong model name needs a config change, not a retry.
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")) {
		clsErr = NewError(ErrorTypeModel, "model not found", false, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	if strings.Contains(errStr, "404") {
		clsErr = NewError(ErrorTypeEndpoint, "endpoint not found", false, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		clsErr = NewError(ErrorTypeEndpoint, "connection failed", true, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		clsErr = NewError(ErrorTypeEndpoint, "request timeout", true, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	if strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "overloaded") {
		clsErr = NewError(ErrorTypeRateLimit, "rate limited", true, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") {
		clsErr = NewError(ErrorTypeEndpoint, "server error", true, err)
		clsErr.StatusCode = statusCode
		return clsErr
	}

	clsErr = NewError(ErrorTypeUnknown, "completion error", false, err)
	clsErr.StatusCode = statusCode
	return clsErr
}

// IsRetryable returns true if the error is a retryable completion error.
func IsRetryable(err error) bool {
	var clsErr *Error
	if errors.As(err, &clsErr) {
		return clsErr.Retryable
	}
	return false
}
