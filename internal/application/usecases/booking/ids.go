package booking

import (
	"github.com/google/uuid"
)

var idempotencyNamespace = uuid.MustParse("6f1d8f0e-5c8e-4d0a-9a57-3b1c8c6f2a41")

type UUIDGenerator struct{}

// NewID derives the id from the idempotency key, so a replayed request maps to the same booking.
func (UUIDGenerator) NewID(idempotencyKey string) uuid.UUID {
	if idempotencyKey == "" {
		return uuid.New()
	}

	return uuid.NewSHA1(idempotencyNamespace, []byte(idempotencyKey))
}
