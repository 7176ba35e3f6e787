package repository

import (
	"context"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"hotel/internal/domain/bookings"
)

type IndexRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	tables Tables
}

func NewIndexRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, tables Tables) *IndexRepo {
	return &IndexRepo{
		db:     db,
		getter: getter,
		tables: tables,
	}
}

type indexRow struct {
	BookingID  uuid.UUID       `db:"booking_id"`
	CreatedAt  time.Time       `db:"created_at"`
	Guests     int             `db:"guests"`
	TotalPrice decimal.Decimal `db:"total_price"`
	CheckIn    bookings.Date   `db:"check_in"`
	CheckOut   bookings.Date   `db:"check_out"`
}

// Upsert stores the entry. A booking re-created under the same id replaces its old entry.
func (r *IndexRepo) Upsert(ctx context.Context, entry bookings.IndexEntry) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (booking_id, created_at, guests, total_price, check_in, check_out)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (booking_id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			guests = EXCLUDED.guests,
			total_price = EXCLUDED.total_price,
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out`, r.tables.Index),
		entry.BookingID,
		entry.CreatedAt,
		entry.Guests,
		entry.TotalPrice,
		entry.CheckIn,
		entry.CheckOut,
	)
	if err != nil {
		return fmt.Errorf("upsert index entry: %w", err)
	}

	return nil
}

func (r *IndexRepo) Refresh(ctx context.Context, entry bookings.IndexEntry) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET guests = $2, total_price = $3, check_in = $4, check_out = $5
		WHERE booking_id = $1`, r.tables.Index),
		entry.BookingID,
		entry.Guests,
		entry.TotalPrice,
		entry.CheckIn,
		entry.CheckOut,
	)
	if err != nil {
		return fmt.Errorf("update index entry: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update index entry: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("index entry %s: %w", entry.BookingID, bookings.ErrBookingNotFound)
	}

	return nil
}

// List returns the entries oldest first.
func (r *IndexRepo) List(ctx context.Context) ([]bookings.IndexEntry, error) {
	var rows []indexRow
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &rows, fmt.Sprintf(`
		SELECT booking_id, created_at, guests, total_price, check_in, check_out
		FROM %s
		ORDER BY created_at, booking_id`, r.tables.Index))
	if err != nil {
		return nil, fmt.Errorf("select index entries: %w", err)
	}

	entries := make([]bookings.IndexEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, bookings.IndexEntry{
			BookingID:  row.BookingID,
			CreatedAt:  row.CreatedAt.UTC(),
			Guests:     row.Guests,
			TotalPrice: row.TotalPrice,
			CheckIn:    row.CheckIn,
			CheckOut:   row.CheckOut,
		})
	}

	return entries, nil
}
