package booking

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

// AmendBooking merges the amendment into the stored booking, re-validates it and moves the
// ledger by the difference between the new and the old demand.
func (e *Engine) AmendBooking(ctx context.Context, id uuid.UUID, amendment bookings.Amendment) (amended bookings.Booking, err error) {
	ctx, span := tracer.Start(ctx, "booking.AmendBooking")
	defer func() {
		observe("amend", err)
		span.End()
	}()

	if amendment.IsEmpty() {
		return bookings.Booking{}, bookings.NewValidationError(nil, "body", "nothing to update")
	}

	err = e.commit(ctx, func(ctx context.Context) error {
		stored, err := e.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		stay, plan, err := e.plan(amendment.Merge(stored))
		if err != nil {
			return err
		}

		previous, err := inventory.BookingDemand(stored)
		if err != nil {
			return fmt.Errorf("failed to rebuild demand of booking %s: %w", id, err)
		}

		ops := inventory.NewDemand(plan, stay).Delta(previous)
		if err := e.guard.Check(len(ops)); err != nil {
			return err
		}

		updatedAt := e.now()
		next := newBooking(amendment.Merge(stored), stay, plan, stored.CreatedAt)
		next.UpdatedAt = &updatedAt

		if err := e.bookings.Replace(ctx, next); err != nil {
			return err
		}

		if err := e.apply(ctx, ops); err != nil {
			return err
		}

		if err := e.index.Refresh(ctx, next.IndexEntry()); err != nil {
			return fmt.Errorf("failed to refresh index entry: %w", err)
		}

		amended = next
		return e.publisher.Publish(ctx, bookings.NewBookingAmended(next))
	})
	if err != nil {
		return bookings.Booking{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", id).
		WithField("total_price", amended.TotalPrice.String()).
		Info("Booking amended")

	return amended, nil
}
