package http

import (
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hotel/internal/domain/bookings"
	"hotel/internal/idempotency"
)

type CancelBookingResponse struct {
	Message string           `json:"message"`
	Booking bookings.Booking `json:"booking"`
}

type ListBookingsResponse struct {
	Count int                `json:"count"`
	Items []bookings.Summary `json:"items"`
}

func (s *Server) CreateBookingHandler(c echo.Context) error {
	var request CreateBookingRequest
	if err := bindJSON(c, &request); err != nil {
		return errorResponse(c, err)
	}

	validated, err := validateCreate(request)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	idempotencyKey := c.Request().Header.Get(idempotency.Header)
	ctx = idempotency.WithKey(ctx, idempotencyKey)

	log.FromContext(ctx).
		WithField("idempotency_key", idempotencyKey).
		WithField("rooms", len(validated.Rooms)).
		Info("Creating booking")

	confirmation, err := s.bookings.CreateBooking(ctx, validated)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, confirmation)
}

func (s *Server) ListBookingsHandler(c echo.Context) error {
	items, err := s.bookings.ListBookings(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, ListBookingsResponse{
		Count: len(items),
		Items: items,
	})
}

func (s *Server) GetBookingHandler(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	booking, err := s.bookings.GetBooking(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) AmendBookingHandler(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var request AmendBookingRequest
	if err := bindJSON(c, &request); err != nil {
		return errorResponse(c, err)
	}

	amendment, err := validateAmend(request)
	if err != nil {
		return errorResponse(c, err)
	}

	amended, err := s.bookings.AmendBooking(c.Request().Context(), id, amendment)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, amended)
}

func (s *Server) CancelBookingHandler(c echo.Context) error {
	id, err := bookingID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	cancelled, err := s.bookings.CancelBooking(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, CancelBookingResponse{
		Message: "booking cancelled",
		Booking: cancelled,
	})
}

func bookingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, bookings.NewValidationError(nil, "id", "booking id is not a valid UUID")
	}

	return id, nil
}

func bindJSON(c echo.Context, target any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, target); err != nil {
		log.FromContext(c.Request().Context()).WithError(err).Debug("Could not bind request body")

		return bookings.NewValidationError(nil, "body", messageMalformed)
	}

	return nil
}
