package poison

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Topic receives messages whose handlers kept failing after all retries.
const Topic = "PoisonQueue"

const defaultScanTimeout = 10 * time.Second

var (
	ErrMessageNotFound = errors.New("message not found")
	errScanDone        = errors.New("done")
)

type Message struct {
	ID      string
	Reason  string
	Handler string
	Topic   string
}

// Queue inspects the poison queue by cycling its messages back onto the same topic.
type Queue struct {
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     watermill.LoggerAdapter

	ScanTimeout time.Duration
}

func NewQueue(subscriber message.Subscriber, publisher message.Publisher, logger watermill.LoggerAdapter) *Queue {
	return &Queue{
		subscriber:  subscriber,
		publisher:   publisher,
		logger:      logger,
		ScanTimeout: defaultScanTimeout,
	}
}

func NewMiddleware(publisher message.Publisher) (message.HandlerMiddleware, error) {
	return middleware.PoisonQueue(publisher, Topic)
}

func (q *Queue) Preview(ctx context.Context) ([]Message, error) {
	var (
		res            = make([]Message, 0)
		firstMessageID string
		done           bool
	)

	err := q.scan(ctx, "preview_poison_queue", func(msg *message.Message, cancel context.CancelFunc) ([]*message.Message, error) {
		if done {
			cancel()
			return nil, errScanDone
		}

		if firstMessageID == "" {
			firstMessageID = msg.UUID
		} else if msg.UUID == firstMessageID {
			done = true
			return []*message.Message{msg}, nil
		}

		res = append(res, Message{
			ID:      msg.UUID,
			Reason:  msg.Metadata.Get(middleware.ReasonForPoisonedKey),
			Handler: msg.Metadata.Get(middleware.PoisonedHandlerKey),
			Topic:   msg.Metadata.Get(middleware.PoisonedTopicKey),
		})

		return []*message.Message{msg}, nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Remove acks the message with the given id and puts every other message back.
func (q *Queue) Remove(ctx context.Context, id string) error {
	var (
		firstMessageID string
		done           bool
		removingErr    error
	)

	err := q.scan(ctx, "remove_poison_queue", func(msg *message.Message, cancel context.CancelFunc) ([]*message.Message, error) {
		if done {
			cancel()
			return nil, errScanDone
		}

		if msg.UUID == id {
			done = true
			return nil, nil
		}

		if firstMessageID == "" {
			firstMessageID = msg.UUID
		} else if msg.UUID == firstMessageID {
			done = true
			removingErr = fmt.Errorf("%w: %s", ErrMessageNotFound, id)
		}

		return []*message.Message{msg}, nil
	})
	if err != nil {
		return err
	}

	if !done {
		// the scan timed out, either the queue is empty or it never cycled back
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}

	return removingErr
}

func (q *Queue) scan(
	ctx context.Context,
	name string,
	handle func(msg *message.Message, cancel context.CancelFunc) ([]*message.Message, error),
) error {
	router, err := message.NewRouter(message.RouterConfig{}, q.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, q.ScanTimeout)
	defer cancel()

	router.AddHandler(
		name,
		Topic,
		q.subscriber,
		Topic,
		q.publisher,
		func(msg *message.Message) ([]*message.Message, error) {
			return handle(msg, cancel)
		},
	)

	return router.Run(ctx)
}
