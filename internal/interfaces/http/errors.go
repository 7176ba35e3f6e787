package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"hotel/internal/domain/bookings"
)

const (
	messageNotFound    = "booking not found"
	messageOverbooked  = "the requested rooms are not available for the whole stay, pick another date range or fewer rooms"
	messageDuplicate   = "the booking could not be stored, please try again"
	messageUnavailable = "the booking store is unavailable, please try again later"
	messageMalformed   = "request body is not valid JSON"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps engine errors to a status and a body that never carries storage details.
func statusFor(err error) (int, ErrorResponse) {
	if validationErr := bookings.IsValidationError(err); validationErr != nil {
		return http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Field: validationErr.Field}
	}

	var tooLarge *bookings.BookingTooLargeError
	if errors.As(err, &tooLarge) {
		return http.StatusBadRequest, ErrorResponse{Error: tooLarge.Error()}
	}

	switch {
	case errors.Is(err, bookings.ErrOverbooked):
		return http.StatusConflict, ErrorResponse{Error: messageOverbooked}
	case errors.Is(err, bookings.ErrBookingNotFound):
		return http.StatusNotFound, ErrorResponse{Error: messageNotFound}
	case errors.Is(err, bookings.ErrDuplicateBooking):
		return http.StatusInternalServerError, ErrorResponse{Error: messageDuplicate}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: messageUnavailable}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: messageUnavailable}
	}
}

func errorResponse(c echo.Context, err error) error {
	status, body := statusFor(err)

	logger := log.FromContext(c.Request().Context()).
		WithField("status", status).
		WithError(err)

	var overbooked *bookings.OverbookedError
	if errors.As(err, &overbooked) {
		logger = logger.WithField("diagnostics", overbooked.Diagnostics())
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Booking request failed")
	} else {
		logger.Info("Booking request rejected")
	}

	return c.JSON(status, body)
}
