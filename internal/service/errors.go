package service

import (
	"errors"
	"fmt"

	"github.com/MohammedMashal/smart-booking-system/internal/repository"
)

// Error kinds surfaced by the booking core. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransient marks infrastructure failures that are safe to retry
	// with the same input.
	ErrTransient = errors.New("temporarily unavailable")
)

func isKind(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrTransient)
}

// classify keeps known kinds, tags retryable storage errors as
// ErrTransient and leaves everything else as is.
func classify(err error) error {
	if err == nil || isKind(err) {
		return err
	}
	if repository.IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
