package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrInvalidDelay", ErrInvalidDelay, "invalid delay"},
		{"ErrActionFailed", ErrActionFailed, "action failed"},
		{"ErrReentrantRun", ErrReentrantRun, "run called from within an action"},
		{"ErrCapacityExceeded", ErrCapacityExceeded, "capacity exceeded"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "scheduler",
				Field:  "delay",
				Value:  -5,
				Reason: "cannot be negative",
			},
			want: "scheduler: invalid delay=-5 (cannot be negative)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "bucket",
				Field:  "burst",
				Value:  0,
				Reason: "must be positive",
				Hint:   "use a value greater than 0",
			},
			want: "bucket: invalid burst=0 (must be positive) - use a value greater than 0",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "scheduler",
				Field:  "cron",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "scheduler: invalid cron= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")
	if verr.Unwrap() != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", verr.Unwrap())
	}

	delayErr := NewValidationError("scheduler", "delay", -1, "cannot be negative").WithKind(ErrInvalidDelay)
	if !errors.Is(delayErr, ErrInvalidDelay) {
		t.Error("ValidationError with kind should match its kind")
	}
	if !errors.Is(delayErr, ErrInvalidConfiguration) {
		t.Error("ValidationError with kind should still match ErrInvalidConfiguration")
	}
	if errors.Is(delayErr, ErrCapacityExceeded) {
		t.Error("ValidationError should not match unrelated sentinels")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	result := err.WithHint("new hint")
	if result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			name: "without context",
			err: &OperationError{
				Module:    "trace",
				Operation: "Record",
				Cause:     errors.New("connection refused"),
			},
			want: "trace.Record failed: connection refused",
		},
		{
			name: "with context",
			err: &OperationError{
				Module:    "scheduler",
				Operation: "ScheduleCron",
				Cause:     errors.New("no next occurrence"),
				Context:   "expression 0 0 0 30 2 *",
			},
			want: "scheduler.ScheduleCron failed: no next occurrence (expression 0 0 0 30 2 *)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	opErr := NewOperationError("test", "test", cause).WithContext("ctx")

	if opErr.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", opErr.Unwrap(), cause)
	}
	if !errors.Is(opErr, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestPredicates(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")
	actionErr := NewOperationError("scheduler", "run", ErrActionFailed)

	tests := []struct {
		name       string
		err        error
		validation bool
		action     bool
		retryable  bool
	}{
		{"validation error", verr, true, false, false},
		{"wrapped validation error", &OperationError{Cause: verr}, true, false, false},
		{"action failure", actionErr, false, true, true},
		{"rate limited", NewOperationError("timers", "Throttle", ErrRateLimited), false, false, true},
		{"plain error", errors.New("x"), false, false, false},
		{"nil error", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := IsActionFailure(tt.err); got != tt.action {
				t.Errorf("IsActionFailure() = %v, want %v", got, tt.action)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
		WithHint("use a value between 0 and 10")

	msg := err.Error()
	for _, part := range []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message should contain %q, got %q", part, msg)
		}
	}
}
