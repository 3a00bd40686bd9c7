// Package errors provides the unified error handling system shared by every
// layer of the connections backend. All failures surfaced to callers are
// UnifiedError values so that transport adapters can map them to status codes
// and clients can branch on a stable code instead of message text.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ============================================================================
// ERROR TYPES AND CLASSIFICATION
// ============================================================================

// ErrorType defines the category of error for proper handling and response.
type ErrorType string

const (
	// Business logic errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeForbidden  ErrorType = "FORBIDDEN"

	// Infrastructure errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

// ErrorSeverity defines the severity level for logging and monitoring.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// ============================================================================
// UNIFIED ERROR STRUCTURE
// ============================================================================

// UnifiedError is the single error type used across all application layers.
type UnifiedError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`    // Specific error code for programmatic handling
	Message string    `json:"message"` // Human-readable message
	Details string    `json:"details"` // Additional context information

	Operation string `json:"operation"` // The operation that failed
	Resource  string `json:"resource"`  // The resource being operated on
	MemberID  string `json:"memberId"`  // Member context (if applicable)
	RequestID string `json:"requestId"` // Request tracing ID

	Severity   ErrorSeverity `json:"severity"`
	Retryable  bool          `json:"retryable"`            // Whether the operation can be retried
	RetryAfter time.Duration `json:"retryAfter,omitempty"` // How long to wait before retry
	Cause      error         `json:"-"`                    // Underlying cause (not serialized)

	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *UnifiedError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with the underlying cause.
func (e *UnifiedError) Unwrap() error {
	return e.Cause
}

// Is treats two UnifiedErrors with the same type and code as equivalent, so
// sentinel errors built once at package init can be matched with errors.Is
// even after WithMemberID/WithOperation decorations produced a new value.
func (e *UnifiedError) Is(target error) bool {
	var other *UnifiedError
	if !errors.As(target, &other) {
		return false
	}
	return e.Type == other.Type && e.Code == other.Code
}

// ============================================================================
// ERROR BUILDER FOR FLUENT CONSTRUCTION
// ============================================================================

// ErrorBuilder provides a fluent interface for constructing UnifiedError instances.
type ErrorBuilder struct {
	err *UnifiedError
}

// NewError creates a new error builder with the specified type and message.
func NewError(errType ErrorType, code, message string) *ErrorBuilder {
	_, file, line, _ := runtime.Caller(1)

	return &ErrorBuilder{
		err: &UnifiedError{
			Type:      errType,
			Code:      code,
			Message:   message,
			Severity:  SeverityMedium,
			Retryable: false,
			File:      file,
			Line:      line,
		},
	}
}

// WithDetails adds additional details to the error.
func (b *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	b.err.Details = details
	return b
}

// WithOperation specifies the operation that failed.
func (b *ErrorBuilder) WithOperation(operation string) *ErrorBuilder {
	b.err.Operation = operation
	return b
}

// WithResource specifies the resource being operated on.
func (b *ErrorBuilder) WithResource(resource string) *ErrorBuilder {
	b.err.Resource = resource
	return b
}

// WithMemberID adds member context to the error.
func (b *ErrorBuilder) WithMemberID(memberID string) *ErrorBuilder {
	b.err.MemberID = memberID
	return b
}

// WithRequestID adds request tracing information.
func (b *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	b.err.RequestID = requestID
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.Severity = severity
	return b
}

// WithRetryable marks the error as retryable.
func (b *ErrorBuilder) WithRetryable(retryable bool) *ErrorBuilder {
	b.err.Retryable = retryable
	return b
}

// WithRetryAfter sets how long to wait before retrying.
func (b *ErrorBuilder) WithRetryAfter(d time.Duration) *ErrorBuilder {
	b.err.RetryAfter = d
	b.err.Retryable = true
	return b
}

// WithCause adds the underlying cause error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

// Build returns the constructed UnifiedError.
func (b *ErrorBuilder) Build() *UnifiedError {
	return b.err
}

// ============================================================================
// CONVENIENCE CONSTRUCTORS
// ============================================================================

// Validation creates a validation error.
func Validation(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeValidation, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// NotFound creates a not found error.
func NotFound(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeNotFound, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Conflict creates a conflict error. Conflicts surfaced by the ledger
// (duplicate pair, already-resolved request) indicate the caller's view was
// stale, not that a retry will succeed, so they default to non-retryable.
func Conflict(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeConflict, code, message).
		WithSeverity(SeverityLow).
		WithRetryable(false)
}

// Forbidden creates a forbidden error.
func Forbidden(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeForbidden, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(false)
}

// Internal creates an internal error.
func Internal(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeInternal, code, message).
		WithSeverity(SeverityHigh).
		WithRetryable(false)
}

// Timeout creates a timeout error.
func Timeout(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeTimeout, code, message).
		WithSeverity(SeverityMedium).
		WithRetryable(true)
}

// Unavailable creates a transient storage/transport error that is safe to
// retry with backoff.
func Unavailable(code, message string) *ErrorBuilder {
	return NewError(ErrorTypeUnavailable, code, message).
		WithSeverity(SeverityHigh).
		WithRetryAfter(500 * time.Millisecond)
}

// ============================================================================
// ERROR CLASSIFICATION AND CHECKING
// ============================================================================

// IsType checks if an error is of a specific type.
func IsType(err error, errType ErrorType) bool {
	var unified *UnifiedError
	if errors.As(err, &unified) {
		return unified.Type == errType
	}
	return false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return IsType(err, ErrorTypeForbidden)
}

// IsUnavailable checks if an error is a transient infrastructure error.
func IsUnavailable(err error) bool {
	return IsType(err, ErrorTypeUnavailable) || IsType(err, ErrorTypeTimeout)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	return IsType(err, ErrorTypeInternal)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var unified *UnifiedError
	if errors.As(err, &unified) {
		return unified.Retryable
	}
	return false
}

// GetSeverity returns the severity of an error.
func GetSeverity(err error) ErrorSeverity {
	var unified *UnifiedError
	if errors.As(err, &unified) {
		return unified.Severity
	}
	return SeverityMedium
}

// AsUnifiedError extracts the UnifiedError from an error chain.
func AsUnifiedError(err error) (*UnifiedError, bool) {
	var unified *UnifiedError
	if errors.As(err, &unified) {
		return unified, true
	}
	return nil, false
}

// Code returns the stable error code, or empty string for foreign errors.
func Code(err error) string {
	var unified *UnifiedError
	if errors.As(err, &unified) {
		return unified.Code
	}
	return ""
}

// ============================================================================
// ERROR WRAPPING AND CONTEXT PRESERVATION
// ============================================================================

// Wrap wraps an existing error with operation context while preserving the
// original classification so errors.Is still matches the sentinel.
func Wrap(err error, operation, message string) *UnifiedError {
	if err == nil {
		return nil
	}

	var existing *UnifiedError
	if errors.As(err, &existing) {
		return &UnifiedError{
			Type:       existing.Type,
			Code:       existing.Code,
			Message:    message,
			Details:    existing.Message,
			Operation:  operation,
			Resource:   existing.Resource,
			MemberID:   existing.MemberID,
			RequestID:  existing.RequestID,
			Severity:   existing.Severity,
			Retryable:  existing.Retryable,
			RetryAfter: existing.RetryAfter,
			Cause:      err,
			File:       existing.File,
			Line:       existing.Line,
		}
	}

	_, file, line, _ := runtime.Caller(1)
	return &UnifiedError{
		Type:      ErrorTypeInternal,
		Code:      "WRAP_ERROR",
		Message:   message,
		Details:   err.Error(),
		Operation: operation,
		Severity:  SeverityMedium,
		Retryable: false,
		Cause:     err,
		File:      file,
		Line:      line,
	}
}
