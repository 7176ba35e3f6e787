package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
	"hotel/internal/idempotency"
)

// CreateBooking reserves every (room type, night) cell of the request and stores the booking
// and its index entry. Either all of it commits or nothing does.
func (e *Engine) CreateBooking(ctx context.Context, req bookings.Request) (confirmation bookings.BookingConfirmation, err error) {
	ctx, span := tracer.Start(ctx, "booking.CreateBooking")
	defer func() {
		observe("create", err)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	stay, plan, err := e.plan(req)
	if err != nil {
		return bookings.BookingConfirmation{}, err
	}

	ops := inventory.NewDemand(plan, stay).Reservations()
	if err := e.guard.Check(len(ops)); err != nil {
		return bookings.BookingConfirmation{}, err
	}

	key, hasKey := idempotency.FromContext(ctx)
	if req.ID == uuid.Nil {
		req.ID = e.ids.NewID(key)
	}

	booking := newBooking(req, stay, plan, e.now())
	span.SetAttributes(
		attribute.String("booking.id", booking.ID.String()),
		attribute.Int("booking.nights", booking.Nights),
		attribute.Int("booking.ledger_ops", len(ops)),
	)

	err = e.commit(ctx, func(ctx context.Context) error {
		if err := e.bookings.InsertIfAbsent(ctx, booking); err != nil {
			return err
		}

		if err := e.apply(ctx, ops); err != nil {
			return err
		}

		if err := e.index.Upsert(ctx, booking.IndexEntry()); err != nil {
			return fmt.Errorf("failed to store index entry: %w", err)
		}

		return e.publisher.Publish(ctx, bookings.NewBookingMade(booking, key))
	})

	if errors.Is(err, bookings.ErrDuplicateBooking) && hasKey {
		return e.replay(ctx, booking.ID)
	}

	var overbookedErr *bookings.OverbookedError
	if errors.As(err, &overbookedErr) {
		log.FromContext(ctx).
			WithField("booking_id", booking.ID).
			WithField("reasons", overbookedErr.Diagnostics()).
			Info("Booking rejected, not enough rooms")
	}

	if err != nil {
		return bookings.BookingConfirmation{}, err
	}

	for _, t := range plan.Types {
		nightsBooked.WithLabelValues(string(t)).Add(float64(plan.Counts[t] * booking.Nights))
	}

	log.FromContext(ctx).
		WithField("booking_id", booking.ID).
		WithField("nights", booking.Nights).
		WithField("total_price", booking.TotalPrice.String()).
		Info("Booking created")

	return bookings.BookingConfirmation{
		Booking:      booking,
		Confirmation: e.catalog.Receipt(plan, booking.Nights),
	}, nil
}

// replay answers a repeated request with the booking the first request stored.
func (e *Engine) replay(ctx context.Context, id uuid.UUID) (bookings.BookingConfirmation, error) {
	stored, err := e.bookings.Get(ctx, id)
	if err != nil {
		return bookings.BookingConfirmation{}, classify(err)
	}

	plan, err := e.catalog.Aggregate(stored.RoomTypes, stored.Guests)
	if err != nil {
		return bookings.BookingConfirmation{}, err
	}

	log.FromContext(ctx).WithField("booking_id", id).Info("Replayed booking request")

	return bookings.BookingConfirmation{
		Booking:      stored,
		Confirmation: e.catalog.Receipt(plan, stored.Nights),
	}, nil
}
