package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hotel/internal/entities"
)

type BookingMade_v1 struct {
	Header     entities.EventHeader `json:"header"`
	BookingID  uuid.UUID            `json:"booking_id"`
	Guests     int                  `json:"guests"`
	RoomTypes  []RoomType           `json:"room_types"`
	CheckIn    Date                 `json:"check_in"`
	CheckOut   Date                 `json:"check_out"`
	TotalPrice decimal.Decimal      `json:"total_price"`
	Email      string               `json:"customer_email"`
	BookedAt   time.Time            `json:"booked_at"`
}

func (e BookingMade_v1) IsInternal() bool {
	return false
}

type BookingAmended_v1 struct {
	Header     entities.EventHeader `json:"header"`
	BookingID  uuid.UUID            `json:"booking_id"`
	Guests     int                  `json:"guests"`
	RoomTypes  []RoomType           `json:"room_types"`
	CheckIn    Date                 `json:"check_in"`
	CheckOut   Date                 `json:"check_out"`
	TotalPrice decimal.Decimal      `json:"total_price"`
	AmendedAt  time.Time            `json:"amended_at"`
}

func (e BookingAmended_v1) IsInternal() bool {
	return false
}

type BookingCancelled_v1 struct {
	Header      entities.EventHeader `json:"header"`
	BookingID   uuid.UUID            `json:"booking_id"`
	CancelledAt time.Time            `json:"cancelled_at"`
}

func (e BookingCancelled_v1) IsInternal() bool {
	return false
}

func NewBookingMade(b Booking, idempotencyKey string) BookingMade_v1 {
	return BookingMade_v1{
		Header:     entities.NewEventHeaderWithIdempotencyKey(idempotencyKey),
		BookingID:  b.ID,
		Guests:     b.Guests,
		RoomTypes:  b.RoomTypes,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		TotalPrice: b.TotalPrice,
		Email:      b.Customer.Email,
		BookedAt:   b.CreatedAt,
	}
}

func NewBookingAmended(b Booking) BookingAmended_v1 {
	amendedAt := time.Now().UTC()
	if b.UpdatedAt != nil {
		amendedAt = *b.UpdatedAt
	}

	return BookingAmended_v1{
		Header:     entities.NewEventHeader(),
		BookingID:  b.ID,
		Guests:     b.Guests,
		RoomTypes:  b.RoomTypes,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		TotalPrice: b.TotalPrice,
		AmendedAt:  amendedAt,
	}
}

func NewBookingCancelled(id uuid.UUID) BookingCancelled_v1 {
	return BookingCancelled_v1{
		Header:      entities.NewEventHeader(),
		BookingID:   id,
		CancelledAt: time.Now().UTC(),
	}
}
