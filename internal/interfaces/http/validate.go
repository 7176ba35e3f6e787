package http

import (
	"net/mail"
	"strings"

	"github.com/AlekSi/pointer"

	"hotel/internal/domain/bookings"
)

type CustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type CreateBookingRequest struct {
	Guests   *int             `json:"guests"`
	Rooms    []string         `json:"rooms"`
	CheckIn  *string          `json:"checkIn"`
	CheckOut *string          `json:"checkOut"`
	Customer *CustomerRequest `json:"customer"`
}

// AmendBookingRequest has the same fields as CreateBookingRequest, all optional.
type AmendBookingRequest CreateBookingRequest

func validateCreate(req CreateBookingRequest) (bookings.Request, error) {
	if req.Guests == nil {
		return bookings.Request{}, bookings.NewValidationError(nil, "guests", "guests is required")
	}
	guests, err := validateGuests(*req.Guests)
	if err != nil {
		return bookings.Request{}, err
	}

	if req.Rooms == nil {
		return bookings.Request{}, bookings.NewValidationError(nil, "rooms", "rooms is required")
	}
	rooms, err := validateRooms(req.Rooms)
	if err != nil {
		return bookings.Request{}, err
	}

	if req.Customer == nil {
		return bookings.Request{}, bookings.NewValidationError(nil, "customer", "customer is required")
	}
	customer, err := validateCustomer(*req.Customer)
	if err != nil {
		return bookings.Request{}, err
	}

	checkIn, err := requiredDate("checkIn", req.CheckIn)
	if err != nil {
		return bookings.Request{}, err
	}
	checkOut, err := requiredDate("checkOut", req.CheckOut)
	if err != nil {
		return bookings.Request{}, err
	}

	return bookings.Request{
		Guests:   guests,
		Rooms:    rooms,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Customer: customer,
	}, nil
}

func validateAmend(req AmendBookingRequest) (bookings.Amendment, error) {
	var amendment bookings.Amendment

	if req.Guests != nil {
		guests, err := validateGuests(*req.Guests)
		if err != nil {
			return bookings.Amendment{}, err
		}
		amendment.Guests = pointer.ToInt(guests)
	}

	if req.Rooms != nil {
		rooms, err := validateRooms(req.Rooms)
		if err != nil {
			return bookings.Amendment{}, err
		}
		amendment.Rooms = rooms
	}

	if req.Customer != nil {
		customer, err := validateCustomer(*req.Customer)
		if err != nil {
			return bookings.Amendment{}, err
		}
		amendment.Customer = &customer
	}

	if req.CheckIn != nil {
		checkIn, err := requiredDate("checkIn", req.CheckIn)
		if err != nil {
			return bookings.Amendment{}, err
		}
		amendment.CheckIn = pointer.ToString(checkIn)
	}

	if req.CheckOut != nil {
		checkOut, err := requiredDate("checkOut", req.CheckOut)
		if err != nil {
			return bookings.Amendment{}, err
		}
		amendment.CheckOut = pointer.ToString(checkOut)
	}

	if amendment.IsEmpty() {
		return bookings.Amendment{}, bookings.NewValidationError(nil, "body", "nothing to update")
	}

	return amendment, nil
}

func validateGuests(guests int) (int, error) {
	if guests < 1 {
		return 0, bookings.NewValidationError(nil, "guests", "guests must be a positive integer")
	}

	return guests, nil
}

func validateRooms(tokens []string) ([]bookings.RoomType, error) {
	if len(tokens) == 0 {
		return nil, bookings.NewValidationError(nil, "rooms", "at least one room is required")
	}

	rooms := make([]bookings.RoomType, 0, len(tokens))
	for _, token := range tokens {
		room, err := bookings.ParseRoomType(strings.ToLower(strings.TrimSpace(token)))
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

func validateCustomer(req CustomerRequest) (bookings.Customer, error) {
	name := strings.TrimSpace(pointer.GetString(req.Name))
	if name == "" {
		return bookings.Customer{}, bookings.NewValidationError(nil, "customer.name", "customer name is required")
	}

	email := strings.TrimSpace(pointer.GetString(req.Email))
	if email == "" {
		return bookings.Customer{}, bookings.NewValidationError(nil, "customer.email", "customer email is required")
	}

	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return bookings.Customer{}, bookings.NewValidationError(nil, "customer.email", "%q is not a valid email address", email)
	}

	return bookings.Customer{Name: name, Email: email}, nil
}

// requiredDate only checks presence; calendar validity is decided when the stay is expanded.
func requiredDate(field string, value *string) (string, error) {
	date := strings.TrimSpace(pointer.GetString(value))
	if date == "" {
		return "", bookings.NewValidationError(bookings.ErrInvalidDate, field, "%s is required", field)
	}

	return date, nil
}
