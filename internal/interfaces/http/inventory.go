package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

type NightAvailability struct {
	RoomType  bookings.RoomType `json:"roomType"`
	Night     bookings.Date     `json:"night"`
	Booked    int               `json:"booked"`
	Capacity  int               `json:"capacity"`
	Available int               `json:"available"`
}

type AvailabilityResponse struct {
	From   string              `json:"from"`
	To     string              `json:"to"`
	Nights []NightAvailability `json:"nights"`
}

func (s *Server) AvailabilityHandler(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")

	records, err := s.bookings.Availability(c.Request().Context(), from, to)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, AvailabilityResponse{
		From:   from,
		To:     to,
		Nights: toNightAvailability(records),
	})
}

func toNightAvailability(records []inventory.Record) []NightAvailability {
	nights := make([]NightAvailability, 0, len(records))
	for _, record := range records {
		nights = append(nights, NightAvailability{
			RoomType:  record.RoomType,
			Night:     record.Night,
			Booked:    record.Booked,
			Capacity:  record.Capacity,
			Available: record.Available(),
		})
	}

	return nights
}
