package booking

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

// MaxAvailabilityNights bounds the range of an availability query.
const MaxAvailabilityNights = 366

func (e *Engine) GetBooking(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	booking, err := e.bookings.Get(ctx, id)
	if err != nil {
		return bookings.Booking{}, classify(err)
	}

	return booking, nil
}

// ListBookings resolves the index back to bookings, oldest first. Entries of cancelled
// bookings are skipped.
func (e *Engine) ListBookings(ctx context.Context) ([]bookings.Summary, error) {
	entries, err := e.index.List(ctx)
	if err != nil {
		return nil, classify(err)
	}

	summaries := make([]bookings.Summary, 0, len(entries))
	for _, entry := range entries {
		booking, err := e.bookings.Get(ctx, entry.BookingID)
		if errors.Is(err, bookings.ErrBookingNotFound) {
			continue
		}
		if err != nil {
			return nil, classify(err)
		}

		summaries = append(summaries, e.catalog.Summarize(booking))
	}

	log.FromContext(ctx).
		WithField("index_entries", len(entries)).
		WithField("bookings", len(summaries)).
		Debug("Listed bookings")

	return summaries, nil
}

// Availability reports every room type for every night in [from, to). Nights nobody booked
// yet report the configured capacity.
func (e *Engine) Availability(ctx context.Context, from, to string) ([]inventory.Record, error) {
	stay, err := bookings.ExpandStay(from, to)
	if err != nil {
		return nil, err
	}
	if stay.NightCount() > MaxAvailabilityNights {
		return nil, bookings.NewValidationError(
			bookings.ErrInvalidRange,
			"to",
			"at most %d nights can be queried at once",
			MaxAvailabilityNights,
		)
	}

	touched, err := e.ledger.Records(ctx, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, classify(err)
	}

	byKey := make(map[inventory.Key]inventory.Record, len(touched))
	for _, record := range touched {
		byKey[record.Key()] = record
	}

	records := make([]inventory.Record, 0, len(bookings.RoomTypes)*stay.NightCount())
	for _, t := range bookings.RoomTypes {
		for _, night := range stay.Nights {
			key := inventory.Key{RoomType: t, Night: night}

			record, ok := byKey[key]
			if !ok {
				record = inventory.Record{RoomType: t, Night: night, Capacity: e.catalog.Capacity(t)}
			}
			records = append(records, record)
		}
	}

	return records, nil
}
