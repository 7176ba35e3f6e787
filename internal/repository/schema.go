package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(ctx context.Context, db *sqlx.DB, tables Tables) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE,
	guests INTEGER NOT NULL,
	room_types TEXT[] NOT NULL,
	check_in DATE NOT NULL,
	check_out DATE NOT NULL,
	nights INTEGER NOT NULL,
	per_night_total NUMERIC(12, 2) NOT NULL,
	total_price NUMERIC(12, 2) NOT NULL,
	customer_name VARCHAR(255) NOT NULL,
	customer_email VARCHAR(255) NOT NULL
);`, tables.Bookings))
	if err != nil {
		return fmt.Errorf("failed to create bookings table: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	booking_id UUID PRIMARY KEY,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	guests INTEGER NOT NULL,
	total_price NUMERIC(12, 2) NOT NULL,
	check_in DATE NOT NULL,
	check_out DATE NOT NULL
);`, tables.Index))
	if err != nil {
		return fmt.Errorf("failed to create booking index table: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	room_type VARCHAR(16) NOT NULL,
	night DATE NOT NULL,
	booked INTEGER NOT NULL,
	capacity INTEGER NOT NULL,
	PRIMARY KEY (room_type, night),
	CHECK (booked >= 0 AND booked <= capacity)
);`, tables.Inventory))
	if err != nil {
		return fmt.Errorf("failed to create inventory table: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMP WITH TIME ZONE NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);`, tables.Events))
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	return nil
}
