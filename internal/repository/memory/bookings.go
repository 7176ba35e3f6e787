package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"hotel/internal/domain/bookings"
)

type BookingsRepo struct {
	db *DB
}

func NewBookingsRepo(db *DB) *BookingsRepo {
	return &BookingsRepo{db: db}
}

func (r *BookingsRepo) InsertIfAbsent(ctx context.Context, booking bookings.Booking) error {
	return r.db.write(ctx, func(trx *transaction) error {
		if _, exists := r.db.bookings[booking.ID]; exists {
			return fmt.Errorf("booking %s: %w", booking.ID, bookings.ErrDuplicateBooking)
		}

		r.db.bookings[booking.ID] = booking
		trx.onRollback(func() {
			delete(r.db.bookings, booking.ID)
		})

		return nil
	})
}

func (r *BookingsRepo) Get(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	var (
		booking bookings.Booking
		exists  bool
	)
	r.db.read(ctx, func() {
		booking, exists = r.db.bookings[id]
	})

	if !exists {
		return bookings.Booking{}, fmt.Errorf("booking %s: %w", id, bookings.ErrBookingNotFound)
	}

	return booking, nil
}

// GetForUpdate is Get; transactions are already serialized.
func (r *BookingsRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	return r.Get(ctx, id)
}

func (r *BookingsRepo) Replace(ctx context.Context, booking bookings.Booking) error {
	return r.db.write(ctx, func(trx *transaction) error {
		previous, exists := r.db.bookings[booking.ID]
		if !exists {
			return fmt.Errorf("booking %s: %w", booking.ID, bookings.ErrBookingNotFound)
		}

		r.db.bookings[booking.ID] = booking
		trx.onRollback(func() {
			r.db.bookings[booking.ID] = previous
		})

		return nil
	})
}

func (r *BookingsRepo) DeleteIfExists(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	var deleted bookings.Booking

	err := r.db.write(ctx, func(trx *transaction) error {
		booking, exists := r.db.bookings[id]
		if !exists {
			return fmt.Errorf("booking %s: %w", id, bookings.ErrBookingNotFound)
		}

		delete(r.db.bookings, id)
		trx.onRollback(func() {
			r.db.bookings[id] = booking
		})

		deleted = booking
		return nil
	})

	return deleted, err
}
