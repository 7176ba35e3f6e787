package repository

import (
	"github.com/lib/pq"
)

// Tables holds the quoted table names. Every name gets the configured prefix.
type Tables struct {
	Bookings  string
	Index     string
	Inventory string
	Events    string
}

func NewTables(prefix string) Tables {
	return Tables{
		Bookings:  pq.QuoteIdentifier(prefix + "bookings"),
		Index:     pq.QuoteIdentifier(prefix + "booking_index"),
		Inventory: pq.QuoteIdentifier(prefix + "inventory"),
		Events:    pq.QuoteIdentifier(prefix + "events"),
	}
}
