package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode represents a specific error type for graph view operations.
type ErrorCode string

const (
	// ErrCodeFetchFailed indicates the note fetch failed; the view is terminal.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
	// ErrCodeCanceled indicates the view was closed before it finished.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// ViewError represents a structured error of a graph view.
type ViewError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *ViewError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ViewError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *ViewError) WithContext(key string, value any) *ViewError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// FetchFailed creates a fetch failure error.
func FetchFailed(cause error) *ViewError {
	return &ViewError{Code: ErrCodeFetchFailed, Message: "failed to load notes", Cause: cause}
}

// Canceled creates a canceled error.
func Canceled(cause error) *ViewError {
	return &ViewError{Code: ErrCodeCanceled, Message: "view closed", Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ViewError {
	return &ViewError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *ViewError {
	return &ViewError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *ViewError {
	return &ViewError{Code: ErrCodeInternal, Message: "internal error", Cause: cause}
}

// IsCode checks if err, or any error it wraps, is a ViewError with code.
func IsCode(err error, code ErrorCode) bool {
	return GetCodeFromError(err, "") == code
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ViewError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var viewErr *ViewError
	if pkgerrors.As(err, &viewErr) {
		return viewErr.Code
	}
	return defaultCode
}
