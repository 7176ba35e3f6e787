package inventory

import (
	"fmt"
	"slices"

	"hotel/internal/domain/bookings"
)

// Key addresses one nightly inventory counter.
type Key struct {
	RoomType bookings.RoomType `json:"roomType"`
	Night    bookings.Date     `json:"night"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%s", k.RoomType, k.Night)
}

// Op changes the booked count of one key. A positive amount is a conditional reserve,
// a negative amount releases rooms reserved earlier.
type Op struct {
	Key
	Amount int
}

func (o Op) IsReserve() bool {
	return o.Amount > 0
}

// Record is the nightly counter for one room type. Booked never exceeds Capacity.
type Record struct {
	RoomType bookings.RoomType `json:"roomType" db:"room_type"`
	Night    bookings.Date     `json:"night" db:"night"`
	Booked   int               `json:"booked" db:"booked"`
	Capacity int               `json:"capacity" db:"capacity"`
}

func (r Record) Available() int {
	return r.Capacity - r.Booked
}

func (r Record) Key() Key {
	return Key{RoomType: r.RoomType, Night: r.Night}
}

func compareKeys(a, b Key) int {
	if a.RoomType != b.RoomType {
		return slices.Index(bookings.RoomTypes, a.RoomType) - slices.Index(bookings.RoomTypes, b.RoomType)
	}

	return a.Night.Compare(b.Night.Time)
}

// SortOps orders ops by room type and night so concurrent commits lock keys in the same order.
func SortOps(ops []Op) {
	slices.SortFunc(ops, func(a, b Op) int {
		return compareKeys(a.Key, b.Key)
	})
}

func SortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		return compareKeys(a.Key(), b.Key())
	})
}
