package message

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"

	"hotel/internal/entities"
	"hotel/internal/interfaces/message/events"
	"hotel/internal/interfaces/message/poison"
	"hotel/internal/observability"
)

type RouterConfig struct {
	// EventsRepo stores every event in the data lake. Nil disables the events_saver handler.
	EventsRepo events.EventRepository

	MaxRetries int
}

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	publisher message.Publisher,
	newSubscriber events.SubscriberConstructor,
	eventHandler *events.Handler,
	config RouterConfig,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	err = initMiddlewares(watermillLogger, router, publisher, config.MaxRetries)
	if err != nil {
		return nil, err
	}

	marshaler := events.Marshaler()

	splitterSubscriber, err := newSubscriber("events_splitter")
	if err != nil {
		return nil, err
	}

	router.AddNoPublisherHandler(
		"events_splitter",
		events.EventsTopic,
		splitterSubscriber,
		func(msg *message.Message) error {
			eventName := marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message")
			}

			return publisher.Publish("events."+eventName, msg)
		},
	)

	if config.EventsRepo != nil {
		saverSubscriber, err := newSubscriber("events_saver")
		if err != nil {
			return nil, err
		}

		router.AddNoPublisherHandler(
			"events_saver",
			events.EventsTopic,
			saverSubscriber,
			saveEventHandler(marshaler, config.EventsRepo),
		)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(
		router,
		events.NewEventProcessorConfig(newSubscriber, watermillLogger),
	)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(eventHandler.Handlers()...)
	if err != nil {
		return nil, err
	}

	return router, nil
}

func saveEventHandler(marshaler cqrs.CommandEventMarshaler, eventsRepo events.EventRepository) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		type Event struct {
			Header entities.EventHeader `json:"header"`
		}

		var event Event
		err := marshaler.Unmarshal(msg, &event)
		if err != nil {
			return fmt.Errorf("%w: %w", events.ErrMalformedEvent, err)
		}

		eventName := marshaler.NameFromMessage(msg)
		if eventName == "" {
			return fmt.Errorf("cannot get event name from message")
		}

		id, err := uuid.Parse(event.Header.Id)
		if err != nil {
			return fmt.Errorf("%w: invalid event id: %w", events.ErrMalformedEvent, err)
		}

		err = eventsRepo.SaveEvent(
			msg.Context(),
			entities.DatalakeEvent{
				Id:          id,
				PublishedAt: event.Header.PublishedAt,
				EventName:   eventName,
				Payload:     msg.Payload,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to save event %s: %w", eventName, err)
		}

		return nil
	}
}

func initMiddlewares(
	watermillLogger watermill.LoggerAdapter,
	router *message.Router,
	publisher message.Publisher,
	maxRetries int,
) error {
	if maxRetries <= 0 {
		maxRetries = 10
	}

	poisonQueue, err := poison.NewMiddleware(publisher)
	if err != nil {
		return err
	}

	router.AddMiddleware(observability.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.EventContextMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(poisonQueue)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// malformed events are acked before Retry sees them
	router.AddMiddleware(events.AckMalformedEventsMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)

	return nil
}
