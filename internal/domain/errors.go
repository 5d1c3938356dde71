package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrSelfBooking       = errors.New("cannot reserve your own tool")
	ErrSlotUnavailable   = errors.New("tool is not available for the requested dates")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStorageFailure    = errors.New("storage failure")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrToolNotFound        = fmt.Errorf("tool %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

// TransitionError describes a rejected reservation status change.
type TransitionError struct {
	From ReservationStatus
	To   ReservationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
