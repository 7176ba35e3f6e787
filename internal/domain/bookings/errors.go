package bookings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnknownRoomType = errors.New("unknown room type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidRange    = errors.New("invalid date range")
	ErrTooManyRooms    = errors.New("too many rooms")
	ErrNotEnoughBeds   = errors.New("not enough beds for guests")

	ErrBookingTooLarge  = errors.New("booking too large")
	ErrOverbooked       = errors.New("overbooked")
	ErrDuplicateBooking = errors.New("duplicate booking")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrLedgerMismatch means a release found fewer booked rooms than the booking holds.
	ErrLedgerMismatch = errors.New("inventory ledger does not match booking")
)

// ValidationError is a caller-fixable problem with a single field.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func NewValidationError(kind error, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrValidation}
	}

	return []error{ErrValidation, e.Kind}
}

type BookingTooLargeError struct {
	Operations int
	Limit      int
}

func (e *BookingTooLargeError) Error() string {
	return fmt.Sprintf(
		"booking needs %d store operations but at most %d fit in one commit, split the stay into several bookings",
		e.Operations,
		e.Limit,
	)
}

func (e *BookingTooLargeError) Unwrap() error {
	return ErrBookingTooLarge
}

// OverbookedError keeps the failed ledger keys for diagnostics. Error() stays generic
// so the keys never reach the caller.
type OverbookedError struct {
	Reasons []string
}

func (e *OverbookedError) Error() string {
	return "the requested rooms are not available for the whole stay, pick another date range or fewer rooms"
}

func (e *OverbookedError) Unwrap() error {
	return ErrOverbooked
}

func (e *OverbookedError) Diagnostics() string {
	return strings.Join(e.Reasons, "; ")
}

func IsValidationError(err error) *ValidationError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}
