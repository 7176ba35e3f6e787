package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const correlationIDKey = "correlation_id"

// eventName is empty for messages the event marshaler did not produce.
func eventName(msg *message.Message) string {
	return marshaler.NameFromMessage(msg)
}

// EventContextMiddleware puts the request's correlation id and the event name on the handler's logger.
// Events published without a correlation id get a generated one, marked like the HTTP layer marks its own.
func EventContextMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get(correlationIDKey)
		if correlationID == "" {
			correlationID = "gen_" + uuid.NewString()
		}

		ctx := log.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"message_uuid":   msg.UUID,
			"event_name":     eventName(msg),
			"handler":        message.HandlerNameFromCtx(msg.Context()),
		}))
		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logger := log.FromContext(msg.Context())
		start := time.Now()

		produced, err := next(msg)
		if err != nil {
			logger.
				WithField("payload", string(msg.Payload)).
				WithField("took", time.Since(start)).
				WithError(err).
				Error("Booking event handler failed")
			return produced, err
		}

		logger.WithField("took", time.Since(start)).Debug("Booking event handled")

		return produced, nil
	}
}

// ErrMalformedEvent marks payloads no retry can fix.
var ErrMalformedEvent = errors.New("malformed event")

func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.Is(err, ErrMalformedEvent) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// AckMalformedEventsMiddleware drops events that cannot be decoded, so they reach neither retries
// nor the poison queue.
func AckMalformedEventsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := next(msg)
		if err != nil && isMalformed(err) {
			log.FromContext(msg.Context()).
				WithError(err).
				Warn("Dropping malformed booking event")
			return nil, nil
		}

		return produced, err
	}
}

var (
	eventHandlerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotel",
		Subsystem: "events",
		Name:      "handler_runs_total",
		Help:      "Booking event handler runs by event, handler and outcome.",
	}, []string{"event", "handler", "outcome"})

	eventHandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hotel",
		Subsystem: "events",
		Name:      "handler_duration_seconds",
		Help:      "Time spent in booking event handlers.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event", "handler"})
)

func MetricsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		name := eventName(msg)
		handler := message.HandlerNameFromCtx(msg.Context())
		start := time.Now()

		produced, err := next(msg)

		eventHandlerDuration.WithLabelValues(name, handler).Observe(time.Since(start).Seconds())

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		eventHandlerRuns.WithLabelValues(name, handler, outcome).Inc()

		return produced, err
	}
}
