package poison_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel/internal/interfaces/message/poison"
)

func poisoned(id, reason string) *message.Message {
	msg := message.NewMessage(id, []byte(`{}`))
	msg.Metadata.Set(middleware.ReasonForPoisonedKey, reason)
	msg.Metadata.Set(middleware.PoisonedHandlerKey, "BookingMadeHandler")
	msg.Metadata.Set(middleware.PoisonedTopicKey, "events.BookingMade_v1")
	return msg
}

func TestQueuePreview(t *testing.T) {
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)

	require.NoError(t, pubSub.Publish(poison.Topic, poisoned("message-1", "connection refused")))

	queue := poison.NewQueue(pubSub, pubSub, logger)
	queue.ScanTimeout = 5 * time.Second

	messages, err := queue.Preview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []poison.Message{
		{
			ID:      "message-1",
			Reason:  "connection refused",
			Handler: "BookingMadeHandler",
			Topic:   "events.BookingMade_v1",
		},
	}, messages)
}

func TestQueueRemove(t *testing.T) {
	logger := watermill.NopLogger{}

	t.Run("found", func(t *testing.T) {
		pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)
		require.NoError(t, pubSub.Publish(poison.Topic, poisoned("message-1", "connection refused")))

		queue := poison.NewQueue(pubSub, pubSub, logger)
		queue.ScanTimeout = 500 * time.Millisecond

		assert.NoError(t, queue.Remove(context.Background(), "message-1"))
	})

	t.Run("missing", func(t *testing.T) {
		pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)
		require.NoError(t, pubSub.Publish(poison.Topic, poisoned("message-1", "connection refused")))

		queue := poison.NewQueue(pubSub, pubSub, logger)
		queue.ScanTimeout = 5 * time.Second

		err := queue.Remove(context.Background(), "message-2")
		assert.ErrorIs(t, err, poison.ErrMessageNotFound)
	})

	t.Run("empty queue", func(t *testing.T) {
		pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)

		queue := poison.NewQueue(pubSub, pubSub, logger)
		queue.ScanTimeout = 500 * time.Millisecond

		err := queue.Remove(context.Background(), "message-1")
		assert.ErrorIs(t, err, poison.ErrMessageNotFound)
	})
}

func TestNewMiddleware(t *testing.T) {
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)

	mw, err := poison.NewMiddleware(pubSub)
	require.NoError(t, err)

	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		return nil, assert.AnError
	})

	_, err = handler(message.NewMessage("message-1", []byte(`{}`)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poisonedMessages, err := pubSub.Subscribe(ctx, poison.Topic)
	require.NoError(t, err)

	select {
	case msg := <-poisonedMessages:
		assert.Equal(t, "message-1", msg.UUID)
		assert.Equal(t, assert.AnError.Error(), msg.Metadata.Get(middleware.ReasonForPoisonedKey))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message did not reach the poison queue")
	}
}
