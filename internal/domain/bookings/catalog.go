package bookings

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type RoomType string

const (
	Single RoomType = "single"
	Double RoomType = "double"
	Suite  RoomType = "suite"
)

const Currency = "SEK"

const DefaultMaxRoomsPerBooking = 20

// RoomTypes lists the closed set of room types in display order.
var RoomTypes = []RoomType{Single, Double, Suite}

type RoomTypeSpec struct {
	Beds      int
	UnitPrice decimal.Decimal
	// Inventory is how many rooms of the type the hotel has.
	Inventory int
}

type Catalog struct {
	specs    map[RoomType]RoomTypeSpec
	maxRooms int
}

func DefaultCatalog() Catalog {
	return NewCatalog(map[RoomType]int{
		Single: 8,
		Double: 8,
		Suite:  4,
	}, DefaultMaxRoomsPerBooking)
}

// NewCatalog keeps beds and prices fixed and takes the inventory counts from the caller.
func NewCatalog(inventory map[RoomType]int, maxRooms int) Catalog {
	return Catalog{
		specs: map[RoomType]RoomTypeSpec{
			Single: {Beds: 1, UnitPrice: decimal.NewFromInt(500), Inventory: inventory[Single]},
			Double: {Beds: 2, UnitPrice: decimal.NewFromInt(1000), Inventory: inventory[Double]},
			Suite:  {Beds: 3, UnitPrice: decimal.NewFromInt(1500), Inventory: inventory[Suite]},
		},
		maxRooms: maxRooms,
	}
}

func (c Catalog) Spec(t RoomType) (RoomTypeSpec, bool) {
	spec, ok := c.specs[t]
	return spec, ok
}

func (c Catalog) Capacity(t RoomType) int {
	return c.specs[t].Inventory
}

func (c Catalog) MaxRooms() int {
	return c.maxRooms
}

func ParseRoomType(token string) (RoomType, error) {
	for _, t := range RoomTypes {
		if string(t) == token {
			return t, nil
		}
	}

	return "", NewValidationError(
		ErrUnknownRoomType,
		"rooms",
		"unknown room type %q, allowed: single, double, suite",
		token,
	)
}

// RoomPlan is the aggregated view of the rooms in one booking.
type RoomPlan struct {
	Counts        map[RoomType]int
	Types         []RoomType
	Beds          int
	PerNightTotal decimal.Decimal
}

func (p RoomPlan) DistinctTypes() int {
	return len(p.Types)
}

// Aggregate counts rooms per type and prices one night. Guests must fit in the beds;
// surplus beds are allowed.
func (c Catalog) Aggregate(rooms []RoomType, guests int) (RoomPlan, error) {
	if guests < 1 {
		return RoomPlan{}, NewValidationError(nil, "guests", "guests must be a positive integer")
	}
	if len(rooms) == 0 {
		return RoomPlan{}, NewValidationError(nil, "rooms", "at least one room is required")
	}
	if c.maxRooms > 0 && len(rooms) > c.maxRooms {
		return RoomPlan{}, NewValidationError(ErrTooManyRooms, "rooms", "at most %d rooms can be booked at once", c.maxRooms)
	}

	plan := RoomPlan{
		Counts:        make(map[RoomType]int),
		PerNightTotal: decimal.Zero,
	}

	for _, room := range rooms {
		spec, ok := c.specs[room]
		if !ok {
			return RoomPlan{}, NewValidationError(
				ErrUnknownRoomType,
				"rooms",
				"unknown room type %q, allowed: single, double, suite",
				string(room),
			)
		}

		plan.Counts[room]++
		plan.Beds += spec.Beds
		plan.PerNightTotal = plan.PerNightTotal.Add(spec.UnitPrice)
	}

	for _, t := range RoomTypes {
		if plan.Counts[t] > 0 {
			plan.Types = append(plan.Types, t)
		}
	}

	if plan.Beds < guests {
		return RoomPlan{}, NewValidationError(
			ErrNotEnoughBeds,
			"guests",
			"%d beds cannot hold %d guests",
			plan.Beds,
			guests,
		)
	}

	return plan, nil
}

// TotalBeds counts beds and ignores unknown room types.
func (c Catalog) TotalBeds(rooms []RoomType) int {
	beds := 0
	for _, room := range rooms {
		beds += c.specs[room].Beds
	}

	return beds
}

func (c Catalog) Summarize(b Booking) Summary {
	beds := c.TotalBeds(b.RoomTypes)

	return Summary{
		Booking:               b,
		TotalCapacity:         beds,
		CapacityMatchesGuests: beds == b.Guests,
	}
}

func (t RoomType) String() string {
	return string(t)
}

func (c Catalog) String() string {
	return fmt.Sprintf(
		"single=%d double=%d suite=%d max_rooms=%d",
		c.Capacity(Single),
		c.Capacity(Double),
		c.Capacity(Suite),
		c.maxRooms,
	)
}
