package validation

import (
	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int64) error {
	if value <= 0 {
		return tlerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int64) error {
	if value < 0 {
		return tlerrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateDelay validates a scheduling delay. The returned error matches
// errors.ErrInvalidDelay.
func ValidateDelay(module string, delay int64) error {
	if delay < 0 {
		return tlerrors.NewValidationError(module, "delay", delay, "cannot be negative").
			WithHint("the clock never moves backwards; use 0 to run on the next drain pass").
			WithKind(tlerrors.ErrInvalidDelay)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return tlerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
