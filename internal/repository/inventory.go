package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

type InventoryRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	tables Tables
}

func NewInventoryRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, tables Tables) *InventoryRepo {
	return &InventoryRepo{
		db:     db,
		getter: getter,
		tables: tables,
	}
}

// Reserve is a single conditional upsert: the first reservation of a key seeds its capacity,
// later ones only update when the result stays within capacity. No returned row means the
// condition failed.
func (r *InventoryRepo) Reserve(ctx context.Context, key inventory.Key, amount, capacity int) (inventory.Record, error) {
	if amount > capacity {
		return inventory.Record{}, fmt.Errorf(
			"%s capacity %d, requested %d: %w",
			key, capacity, amount, bookings.ErrOverbooked,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS inv (room_type, night, booked, capacity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_type, night) DO UPDATE
			SET booked = inv.booked + EXCLUDED.booked
			WHERE inv.booked + EXCLUDED.booked <= inv.capacity
		RETURNING room_type, night, booked, capacity`, r.tables.Inventory)

	var record inventory.Record
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &record, query,
		string(key.RoomType),
		key.Night,
		amount,
		capacity,
	)
	if errors.Is(err, sql.ErrNoRows) || hasCode(err, checkViolation) {
		return inventory.Record{}, fmt.Errorf("%s requested %d: %w", key, amount, bookings.ErrOverbooked)
	}
	if err != nil {
		return inventory.Record{}, fmt.Errorf("reserve %s: %w", key, err)
	}

	return record, nil
}

func (r *InventoryRepo) Release(ctx context.Context, key inventory.Key, amount int) (inventory.Record, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET booked = booked - $3
		WHERE room_type = $1 AND night = $2 AND booked >= $3
		RETURNING room_type, night, booked, capacity`, r.tables.Inventory)

	var record inventory.Record
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &record, query,
		string(key.RoomType),
		key.Night,
		amount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Record{}, fmt.Errorf("%s release %d: %w", key, amount, bookings.ErrLedgerMismatch)
	}
	if err != nil {
		return inventory.Record{}, fmt.Errorf("release %s: %w", key, err)
	}

	return record, nil
}

func (r *InventoryRepo) Records(ctx context.Context, from, to bookings.Date) ([]inventory.Record, error) {
	var records []inventory.Record
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &records, fmt.Sprintf(`
		SELECT room_type, night, booked, capacity
		FROM %s
		WHERE night >= $1 AND night < $2`, r.tables.Inventory),
		from,
		to,
	)
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}

	inventory.SortRecords(records)
	return records, nil
}
