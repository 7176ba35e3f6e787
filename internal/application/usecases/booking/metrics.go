package booking

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hotel/internal/domain/bookings"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_commits_total",
		Help: "Total number of booking commits by operation and outcome",
	}, []string{"operation", "outcome"})

	nightsBooked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_room_nights_total",
		Help: "Total number of room nights reserved",
	}, []string{"room_type"})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bookings.ErrValidation):
		return "invalid"
	case errors.Is(err, bookings.ErrBookingTooLarge):
		return "too_large"
	case errors.Is(err, bookings.ErrOverbooked):
		return "overbooked"
	case errors.Is(err, bookings.ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, bookings.ErrDuplicateBooking):
		return "duplicate"
	default:
		return "error"
	}
}

func observe(operation string, err error) {
	commitsTotal.WithLabelValues(operation, outcome(err)).Inc()
}
