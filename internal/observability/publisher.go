package observability

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// PublisherWithTracing copies the trace context and the correlation id of each message's
// context into its metadata.
type PublisherWithTracing struct {
	message.Publisher
}

func (p PublisherWithTracing) Publish(topic string, messages ...*message.Message) error {
	for i := range messages {
		otel.GetTextMapPropagator().
			Inject(messages[i].Context(), propagation.MapCarrier(messages[i].Metadata))

		if correlationID := log.CorrelationIDFromContext(messages[i].Context()); correlationID != "" {
			messages[i].Metadata.Set("correlation_id", correlationID)
		}
	}
	return p.Publisher.Publish(topic, messages...)
}
