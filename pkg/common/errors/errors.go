package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the tickloop library

var (
	// ErrInvalidDelay indicates a negative delay was passed to a scheduling call
	ErrInvalidDelay = errors.New("invalid delay")

	// ErrActionFailed indicates that a scheduled action returned an error or panicked
	ErrActionFailed = errors.New("action failed")

	// ErrReentrantRun indicates a driver method was called from inside a running action
	ErrReentrantRun = errors.New("run called from within an action")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")

)

// ValidationError describes a rejected input value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string

	// Kind is the sentinel returned by Unwrap. Defaults to ErrInvalidConfiguration.
	Kind error
}

// NewValidationError creates a ValidationError wrapping ErrInvalidConfiguration.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// WithKind sets the sentinel the error unwraps to.
func (e *ValidationError) WithKind(kind error) *ValidationError {
	e.Kind = kind
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns the sentinel kind of the validation failure.
func (e *ValidationError) Unwrap() error {
	if e.Kind != nil {
		return e.Kind
	}
	return ErrInvalidConfiguration
}

// Is lets errors.Is match ErrInvalidConfiguration for every validation error,
// regardless of a more specific Kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// OperationError records a failed operation together with its cause.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra context and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsActionFailure reports whether err originates from a failed scheduled action.
func IsActionFailure(err error) bool {
	return errors.Is(err, ErrActionFailed)
}

// IsRetryable returns true if repeating the call later may succeed: an action
// failure leaves the remaining queue intact, and a rate-limited request may
// fit once tokens refill.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrActionFailed) || errors.Is(err, ErrRateLimited)
}
