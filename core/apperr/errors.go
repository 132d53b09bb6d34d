// Package apperr defines the error taxonomy shared by all services. Callers
// classify failures with errors.Is against the sentinels; the API layer maps
// each class to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a role or ownership check failure.
	ErrForbidden = errors.New("access denied")
	// ErrAuth marks bad credentials or an invalid/expired token. Deliberately
	// low-detail: callers never learn which factor failed.
	ErrAuth = errors.New("invalid credentials")
	// ErrConflict marks a write that raced with another and lost.
	ErrConflict = errors.New("conflict")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}
