package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"hotel/internal/domain/bookings"
)

const bookingColumns = `id, created_at, updated_at, guests, room_types, check_in, check_out,
	nights, per_night_total, total_price, customer_name, customer_email`

type bookingRow struct {
	ID            uuid.UUID       `db:"id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     sql.NullTime    `db:"updated_at"`
	Guests        int             `db:"guests"`
	RoomTypes     pq.StringArray  `db:"room_types"`
	CheckIn       bookings.Date   `db:"check_in"`
	CheckOut      bookings.Date   `db:"check_out"`
	Nights        int             `db:"nights"`
	PerNightTotal decimal.Decimal `db:"per_night_total"`
	TotalPrice    decimal.Decimal `db:"total_price"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
}

func (r bookingRow) toDomain() bookings.Booking {
	rooms := make([]bookings.RoomType, len(r.RoomTypes))
	for i, room := range r.RoomTypes {
		rooms[i] = bookings.RoomType(room)
	}

	b := bookings.Booking{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt.UTC(),
		Guests:        r.Guests,
		RoomTypes:     rooms,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Nights:        r.Nights,
		PerNightTotal: r.PerNightTotal,
		TotalPrice:    r.TotalPrice,
		Customer: bookings.Customer{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
		},
	}
	if r.UpdatedAt.Valid {
		updatedAt := r.UpdatedAt.Time.UTC()
		b.UpdatedAt = &updatedAt
	}

	return b
}

func roomTypesArray(rooms []bookings.RoomType) pq.StringArray {
	arr := make(pq.StringArray, len(rooms))
	for i, room := range rooms {
		arr[i] = string(room)
	}

	return arr
}

type BookingsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	tables Tables
}

func NewBookingsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, tables Tables) *BookingsRepo {
	return &BookingsRepo{
		db:     db,
		getter: getter,
		tables: tables,
	}
}

func (r *BookingsRepo) InsertIfAbsent(ctx context.Context, booking bookings.Booking) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, created_at, updated_at, guests, room_types, check_in, check_out,
			nights, per_night_total, total_price, customer_name, customer_email
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) ON CONFLICT (id) DO NOTHING`, r.tables.Bookings)

	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		booking.ID,
		booking.CreatedAt,
		booking.UpdatedAt,
		booking.Guests,
		roomTypesArray(booking.RoomTypes),
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.PerNightTotal,
		booking.TotalPrice,
		booking.Customer.Name,
		booking.Customer.Email,
	)
	if hasCode(err, uniqueViolation) {
		return fmt.Errorf("booking %s: %w", booking.ID, bookings.ErrDuplicateBooking)
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID, bookings.ErrDuplicateBooking)
	}

	return nil
}

func (r *BookingsRepo) Get(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *BookingsRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *BookingsRepo) get(ctx context.Context, id uuid.UUID, lock string) (bookings.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 %s`, bookingColumns, r.tables.Bookings, lock)

	var row bookingRow
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return bookings.Booking{}, fmt.Errorf("booking %s: %w", id, bookings.ErrBookingNotFound)
	}
	if err != nil {
		return bookings.Booking{}, fmt.Errorf("select booking: %w", err)
	}

	return row.toDomain(), nil
}

func (r *BookingsRepo) Replace(ctx context.Context, booking bookings.Booking) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			updated_at = $2,
			guests = $3,
			room_types = $4,
			check_in = $5,
			check_out = $6,
			nights = $7,
			per_night_total = $8,
			total_price = $9,
			customer_name = $10,
			customer_email = $11
		WHERE id = $1`, r.tables.Bookings)

	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		booking.ID,
		booking.UpdatedAt,
		booking.Guests,
		roomTypesArray(booking.RoomTypes),
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.PerNightTotal,
		booking.TotalPrice,
		booking.Customer.Name,
		booking.Customer.Email,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID, bookings.ErrBookingNotFound)
	}

	return nil
}

func (r *BookingsRepo) DeleteIfExists(ctx context.Context, id uuid.UUID) (bookings.Booking, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.tables.Bookings, bookingColumns)

	var row bookingRow
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return bookings.Booking{}, fmt.Errorf("booking %s: %w", id, bookings.ErrBookingNotFound)
	}
	if err != nil {
		return bookings.Booking{}, fmt.Errorf("delete booking: %w", err)
	}

	return row.toDomain(), nil
}
