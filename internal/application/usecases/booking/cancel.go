package booking

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

// CancelBooking deletes the booking and releases exactly the rooms it reserved.
func (e *Engine) CancelBooking(ctx context.Context, id uuid.UUID) (cancelled bookings.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.CancelBooking")
	defer func() {
		observe("cancel", err)
		span.End()
	}()

	err = e.commit(ctx, func(ctx context.Context) error {
		deleted, err := e.bookings.DeleteIfExists(ctx, id)
		if err != nil {
			return err
		}

		demand, err := inventory.BookingDemand(deleted)
		if err != nil {
			return fmt.Errorf("failed to rebuild demand of booking %s: %w", id, err)
		}

		if err := e.apply(ctx, demand.Releases()); err != nil {
			return err
		}

		cancelled = deleted
		return e.publisher.Publish(ctx, bookings.NewBookingCancelled(id))
	})
	if err != nil {
		return bookings.Booking{}, err
	}

	log.FromContext(ctx).WithField("booking_id", id).Info("Booking cancelled")

	return cancelled, nil
}
