package booking

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lib/pq"
)

// serialization_failure and deadlock_detected
var retryableCodes = map[pq.ErrorCode]bool{
	"40001": true,
	"40P01": true,
}

func WithRetry(attempts int, f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for i := 0; i < attempts; i++ {
			err := f(ctx)
			if err == nil {
				return nil
			}

			if !IsRetryable(err) {
				return err
			}

			log.FromContext(ctx).
				WithField("attempt", i+1).
				WithError(err).
				Warn("Retrying transaction")
			lastErr = err
		}

		return lastErr
	}
}

func IsRetryable(err error) bool {
	pgErr := &pq.Error{}
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Code]
	}

	return false
}
