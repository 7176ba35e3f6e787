package events_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel/internal/domain/bookings"
	"hotel/internal/interfaces/message/events"
)

func bookingMadeMessage(t *testing.T) *message.Message {
	t.Helper()

	msg, err := events.Marshaler().Marshal(bookings.NewBookingMade(bookings.Booking{ID: uuid.New(), Guests: 2}, ""))
	require.NoError(t, err)
	msg.SetContext(context.Background())

	return msg
}

func TestEventContextMiddleware(t *testing.T) {
	t.Run("keeps the published correlation id", func(t *testing.T) {
		msg := bookingMadeMessage(t)
		msg.Metadata.Set("correlation_id", "req-123")

		_, err := events.EventContextMiddleware(func(msg *message.Message) ([]*message.Message, error) {
			assert.Equal(t, "req-123", log.CorrelationIDFromContext(msg.Context()))

			fields := log.FromContext(msg.Context()).Data
			assert.Equal(t, "req-123", fields["correlation_id"])
			assert.Equal(t, "BookingMade_v1", fields["event_name"])
			assert.Equal(t, msg.UUID, fields["message_uuid"])
			return nil, nil
		})(msg)
		require.NoError(t, err)
	})

	t.Run("generates a marked correlation id", func(t *testing.T) {
		msg := bookingMadeMessage(t)

		_, err := events.EventContextMiddleware(func(msg *message.Message) ([]*message.Message, error) {
			assert.True(t, strings.HasPrefix(log.CorrelationIDFromContext(msg.Context()), "gen_"))
			return nil, nil
		})(msg)
		require.NoError(t, err)
	})
}

func TestAckMalformedEventsMiddleware(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{
			name: "malformed event is acked",
			err:  fmt.Errorf("%w: unexpected end of JSON input", events.ErrMalformedEvent),
		},
		{
			name:    "handler failure is kept for retries",
			err:     assert.AnError,
			wantErr: true,
		},
		{
			name: "success",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := events.AckMalformedEventsMiddleware(func(*message.Message) ([]*message.Message, error) {
				return nil, tc.err
			})

			_, err := handler(bookingMadeMessage(t))
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
