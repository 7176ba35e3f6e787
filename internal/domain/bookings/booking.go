package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Booking struct {
	ID            uuid.UUID       `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
	Guests        int             `json:"guests"`
	RoomTypes     []RoomType      `json:"roomTypes"`
	CheckIn       Date            `json:"checkIn"`
	CheckOut      Date            `json:"checkOut"`
	Nights        int             `json:"nights"`
	PerNightTotal decimal.Decimal `json:"perNightTotal"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Customer      Customer        `json:"customer"`
}

func (b Booking) Stay() (Stay, error) {
	return NewStay(b.CheckIn, b.CheckOut)
}

func (b Booking) IndexEntry() IndexEntry {
	return IndexEntry{
		BookingID:  b.ID,
		CreatedAt:  b.CreatedAt,
		Guests:     b.Guests,
		TotalPrice: b.TotalPrice,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
	}
}

// IndexEntry is the lightweight lookup row that lets bookings be listed without a full scan.
type IndexEntry struct {
	BookingID  uuid.UUID       `json:"bookingId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Guests     int             `json:"guests"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CheckIn    Date            `json:"checkIn"`
	CheckOut   Date            `json:"checkOut"`
}

// Request is a create request that already passed shape validation.
type Request struct {
	ID       uuid.UUID
	Guests   int
	Rooms    []RoomType
	CheckIn  string
	CheckOut string
	Customer Customer
}

// Amendment holds the fields to change. Nil fields keep the stored value.
type Amendment struct {
	Guests   *int
	Rooms    []RoomType
	CheckIn  *string
	CheckOut *string
	Customer *Customer
}

func (a Amendment) IsEmpty() bool {
	return a.Guests == nil && a.Rooms == nil && a.CheckIn == nil && a.CheckOut == nil && a.Customer == nil
}

// Merge returns the request that results from applying a onto b.
func (a Amendment) Merge(b Booking) Request {
	merged := Request{
		ID:       b.ID,
		Guests:   b.Guests,
		Rooms:    b.RoomTypes,
		CheckIn:  b.CheckIn.String(),
		CheckOut: b.CheckOut.String(),
		Customer: b.Customer,
	}

	if a.Guests != nil {
		merged.Guests = *a.Guests
	}
	if a.Rooms != nil {
		merged.Rooms = a.Rooms
	}
	if a.CheckIn != nil {
		merged.CheckIn = *a.CheckIn
	}
	if a.CheckOut != nil {
		merged.CheckOut = *a.CheckOut
	}
	if a.Customer != nil {
		merged.Customer = *a.Customer
	}

	return merged
}

type BookingConfirmation struct {
	Booking
	Confirmation Receipt `json:"confirmation"`
}

// Summary is a booking as it appears in listings.
type Summary struct {
	Booking
	TotalCapacity         int  `json:"totalCapacity"`
	CapacityMatchesGuests bool `json:"capacityMatchesGuests"`
}
