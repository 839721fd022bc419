package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatGeneration ErrorCategory = "generation" // Model produced no usable text
	ErrCatTimeout    ErrorCategory = "timeout"    // Model call timed out
	ErrCatNetwork    ErrorCategory = "network"    // Model runtime unreachable
	ErrCatModeration ErrorCategory = "moderation" // Content rejected by guard
	ErrCatState      ErrorCategory = "state"      // State corruption/conflict
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrInvalidTopic creates a topic rejection error. Terminal for the start
// attempt: no debate is created.
func ErrInvalidTopic(reason string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      CodeInvalidTopic,
		Message:   reason,
		Retryable: false,
	}
}

// ErrGeneration creates an error for a model call that produced no usable
// text. Mid-debate these surface as retryable soft failures.
func ErrGeneration(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatGeneration,
		Code:      CodeGenerationFailed,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error for a slow model call.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrUnavailable creates an error for an unreachable model runtime.
func ErrUnavailable(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatNetwork,
		Code:      CodeRuntimeUnavailable,
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeInvalidTopic       = "INVALID_TOPIC"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeRuntimeUnavailable = "RUNTIME_UNAVAILABLE"
	CodeDebateNotFound     = "DEBATE_NOT_FOUND"
	CodeDebateClosed       = "DEBATE_CLOSED"
	CodeInvalidState       = "INVALID_STATE"
	CodeStateCorrupted     = "STATE_CORRUPTED"
	CodeEmptyTopic         = "EMPTY_TOPIC"
	CodeTopicTooLong       = "TOPIC_TOO_LONG"
)

// MaxTopicLength is the maximum allowed topic length.
const MaxTopicLength = 500
