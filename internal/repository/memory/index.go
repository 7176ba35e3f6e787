package memory

import (
	"context"
	"fmt"
	"slices"

	"hotel/internal/domain/bookings"
)

type IndexRepo struct {
	db *DB
}

func NewIndexRepo(db *DB) *IndexRepo {
	return &IndexRepo{db: db}
}

// Upsert appends the entry. A booking re-created under the same id moves to the end.
func (r *IndexRepo) Upsert(ctx context.Context, entry bookings.IndexEntry) error {
	return r.db.write(ctx, func(trx *transaction) error {
		previous := slices.Clone(r.db.index)

		r.db.index = slices.DeleteFunc(r.db.index, func(e bookings.IndexEntry) bool {
			return e.BookingID == entry.BookingID
		})
		r.db.index = append(r.db.index, entry)

		trx.onRollback(func() {
			r.db.index = previous
		})

		return nil
	})
}

func (r *IndexRepo) Refresh(ctx context.Context, entry bookings.IndexEntry) error {
	return r.db.write(ctx, func(trx *transaction) error {
		for i := range r.db.index {
			if r.db.index[i].BookingID != entry.BookingID {
				continue
			}

			previous := r.db.index[i]
			entry.CreatedAt = previous.CreatedAt
			r.db.index[i] = entry

			trx.onRollback(func() {
				r.db.index[i] = previous
			})
			return nil
		}

		return fmt.Errorf("index entry %s: %w", entry.BookingID, bookings.ErrBookingNotFound)
	})
}

// List returns the entries in insertion order.
func (r *IndexRepo) List(ctx context.Context) ([]bookings.IndexEntry, error) {
	var entries []bookings.IndexEntry
	r.db.read(ctx, func() {
		entries = make([]bookings.IndexEntry, len(r.db.index))
		copy(entries, r.db.index)
	})

	return entries, nil
}
