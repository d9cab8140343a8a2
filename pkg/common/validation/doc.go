// Package validation provides common validation utilities for delays,
// intervals and configuration parameters across the tickloop library.
//
// Every helper returns a *errors.ValidationError so callers can use
// errors.IsValidationError uniformly; ValidateDelay additionally marks
// its error with errors.ErrInvalidDelay.
package validation
