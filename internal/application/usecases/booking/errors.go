package booking

import (
	"context"
	"errors"
	"fmt"

	"hotel/internal/domain/bookings"
)

var domainErrors = []error{
	bookings.ErrValidation,
	bookings.ErrBookingTooLarge,
	bookings.ErrOverbooked,
	bookings.ErrDuplicateBooking,
	bookings.ErrBookingNotFound,
	bookings.ErrStoreUnavailable,
	bookings.ErrLedgerMismatch,
	context.Canceled,
	context.DeadlineExceeded,
}

// classify keeps domain errors as they are and marks everything else as a store failure.
func classify(err error) error {
	if err == nil {
		return nil
	}

	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", bookings.ErrStoreUnavailable, err)
}

func overbooked(err error) error {
	if !errors.Is(err, bookings.ErrOverbooked) {
		return err
	}

	var overbookedErr *bookings.OverbookedError
	if errors.As(err, &overbookedErr) {
		return err
	}

	return &bookings.OverbookedError{Reasons: []string{err.Error()}}
}
