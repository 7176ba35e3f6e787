package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"hotel/internal/entities"
)

const (
	EventsTopic         = "events"
	internalTopicPrefix = "internal-events.svc-hotel."
	eventTopicPrefix    = "events."
)

var marshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

func Marshaler() cqrs.CommandEventMarshaler {
	return marshaler
}

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				event, ok := params.Event.(entities.Event)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", params.Event)
				}

				if event.IsInternal() {
					return internalTopicPrefix + params.EventName, nil
				}

				// stored in the data lake first, then split into per-event topics
				return EventsTopic, nil
			},
			Marshaler: marshaler,
			Logger:    logger,
		},
	)
}
