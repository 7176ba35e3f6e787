package memory

import (
	"context"
	"fmt"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// Reserve adds amount to the key's booked count unless that would exceed capacity.
// A key seen for the first time is seeded with the given capacity.
func (r *InventoryRepo) Reserve(ctx context.Context, key inventory.Key, amount, capacity int) (inventory.Record, error) {
	var record inventory.Record

	err := r.db.write(ctx, func(trx *transaction) error {
		previous, exists := r.db.inventory[key]
		current := previous
		if !exists {
			current = inventory.Record{RoomType: key.RoomType, Night: key.Night, Capacity: capacity}
		}

		if current.Booked+amount > current.Capacity {
			return fmt.Errorf(
				"%s booked %d of %d, requested %d: %w",
				key, current.Booked, current.Capacity, amount, bookings.ErrOverbooked,
			)
		}

		current.Booked += amount
		r.db.inventory[key] = current
		trx.onRollback(func() {
			if exists {
				r.db.inventory[key] = previous
			} else {
				delete(r.db.inventory, key)
			}
		})

		record = current
		return nil
	})

	return record, err
}

func (r *InventoryRepo) Release(ctx context.Context, key inventory.Key, amount int) (inventory.Record, error) {
	var record inventory.Record

	err := r.db.write(ctx, func(trx *transaction) error {
		previous, exists := r.db.inventory[key]
		if !exists || previous.Booked < amount {
			return fmt.Errorf("%s release %d: %w", key, amount, bookings.ErrLedgerMismatch)
		}

		current := previous
		current.Booked -= amount
		r.db.inventory[key] = current
		trx.onRollback(func() {
			r.db.inventory[key] = previous
		})

		record = current
		return nil
	})

	return record, err
}

// Records returns the touched records for nights in [from, to).
func (r *InventoryRepo) Records(ctx context.Context, from, to bookings.Date) ([]inventory.Record, error) {
	var records []inventory.Record

	r.db.read(ctx, func() {
		for _, record := range r.db.inventory {
			if record.Night.Before(from.Time) || !record.Night.Before(to.Time) {
				continue
			}
			records = append(records, record)
		}
	})

	inventory.SortRecords(records)
	return records, nil
}

func (r *InventoryRepo) Get(ctx context.Context, key inventory.Key) (inventory.Record, bool) {
	var (
		record inventory.Record
		exists bool
	)
	r.db.read(ctx, func() {
		record, exists = r.db.inventory[key]
	})

	return record, exists
}
