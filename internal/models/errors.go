package models

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these onto HTTP status codes; callers test
// with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("store unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrVenueNotFound       = fmt.Errorf("venue %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrSettingsNotFound    = fmt.Errorf("venue settings %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
)

var (
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrValidation)
	ErrCapacityExceeded  = fmt.Errorf("%w: party size exceeds remaining capacity", ErrValidation)
	ErrFullyBooked       = fmt.Errorf("%w: no remaining capacity for date", ErrValidation)
	ErrDateUnavailable   = fmt.Errorf("%w: venue is closed on date", ErrValidation)
	ErrInvalidDate       = fmt.Errorf("%w: malformed date", ErrValidation)
	ErrInvalidTime       = fmt.Errorf("%w: malformed time", ErrValidation)
	ErrInvalidPartySize  = fmt.Errorf("%w: party size must be at least 1", ErrValidation)
	ErrNotDeletable      = fmt.Errorf("%w: only cancelled or rejected reservations can be deleted", ErrValidation)
)

var (
	ErrDuplicateLogin = fmt.Errorf("%w: login id already exists", ErrConflict)
	ErrDuplicateEmail = fmt.Errorf("%w: email already exists", ErrConflict)
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: login id or password does not match", ErrUnauthorized)
)

// Validationf builds a one-off validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
