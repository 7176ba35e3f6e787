package booking

import (
	"hotel/internal/domain/bookings"
)

const (
	DefaultMaxTransactionItems = 25

	// RecordOperations are the booking record and its index entry.
	RecordOperations = 2
)

// SizeGuard rejects commits that would touch more items than one transaction allows.
type SizeGuard struct {
	Limit int
}

func (g SizeGuard) Operations(ledgerOps int) int {
	return ledgerOps + RecordOperations
}

func (g SizeGuard) Check(ledgerOps int) error {
	limit := g.Limit
	if limit <= 0 {
		limit = DefaultMaxTransactionItems
	}

	if ops := g.Operations(ledgerOps); ops > limit {
		return &bookings.BookingTooLargeError{Operations: ops, Limit: limit}
	}

	return nil
}
