package events

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hotel/internal/domain/bookings"
	"hotel/internal/entities"
)

var (
	bookingEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_events_handled_total",
		Help: "Total number of booking events handled by the activity projection",
	}, []string{"event"})

	bookedGuests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booking_active_guests",
		Help: "Guests of bookings made and not cancelled, as seen by this instance",
	})
)

type EventRepository interface {
	SaveEvent(ctx context.Context, event entities.DatalakeEvent) error
}

// Handler projects booking events into activity metrics.
type Handler struct {
	mu     sync.Mutex
	guests map[string]int
}

func NewHandler() *Handler {
	return &Handler{guests: make(map[string]int)}
}

func (h *Handler) Handlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		h.BookingMadeHandler(),
		h.BookingAmendedHandler(),
		h.BookingCancelledHandler(),
	}
}

func (h *Handler) BookingMadeHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"booking_activity.on_booking_made",
		func(ctx context.Context, event *bookings.BookingMade_v1) error {
			log.FromContext(ctx).
				WithField("booking_id", event.BookingID).
				WithField("rooms", len(event.RoomTypes)).
				Info("Booking made")

			h.track(event.BookingID.String(), event.Guests)
			bookingEventsTotal.WithLabelValues("BookingMade_v1").Inc()
			return nil
		})
}

func (h *Handler) BookingAmendedHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"booking_activity.on_booking_amended",
		func(ctx context.Context, event *bookings.BookingAmended_v1) error {
			log.FromContext(ctx).
				WithField("booking_id", event.BookingID).
				Info("Booking amended")

			h.track(event.BookingID.String(), event.Guests)
			bookingEventsTotal.WithLabelValues("BookingAmended_v1").Inc()
			return nil
		})
}

func (h *Handler) BookingCancelledHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"booking_activity.on_booking_cancelled",
		func(ctx context.Context, event *bookings.BookingCancelled_v1) error {
			log.FromContext(ctx).
				WithField("booking_id", event.BookingID).
				Info("Booking cancelled")

			h.track(event.BookingID.String(), 0)
			bookingEventsTotal.WithLabelValues("BookingCancelled_v1").Inc()
			return nil
		})
}

// track replaces the guests counted for a booking; zero removes it.
func (h *Handler) track(bookingID string, guests int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := h.guests[bookingID]
	if guests == 0 {
		delete(h.guests, bookingID)
	} else {
		h.guests[bookingID] = guests
	}

	bookedGuests.Add(float64(guests - previous))
}

func (h *Handler) ActiveGuests() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, guests := range h.guests {
		total += guests
	}
	return total
}
