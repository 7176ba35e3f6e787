package inventory

import (
	"hotel/internal/domain/bookings"
)

// Demand is the demand matrix: rooms needed per room type and night.
type Demand map[Key]int

func NewDemand(plan bookings.RoomPlan, stay bookings.Stay) Demand {
	d := make(Demand, len(plan.Types)*stay.NightCount())

	for _, t := range plan.Types {
		for _, night := range stay.Nights {
			d[Key{RoomType: t, Night: night}] = plan.Counts[t]
		}
	}

	return d
}

// BookingDemand rebuilds the demand a stored booking holds in the ledger.
func BookingDemand(b bookings.Booking) (Demand, error) {
	stay, err := b.Stay()
	if err != nil {
		return nil, err
	}

	counts := make(map[bookings.RoomType]int)
	for _, t := range b.RoomTypes {
		counts[t]++
	}

	d := make(Demand, len(counts)*stay.NightCount())
	for t, count := range counts {
		for _, night := range stay.Nights {
			d[Key{RoomType: t, Night: night}] = count
		}
	}

	return d, nil
}

// Reservations returns one reserve op per cell, sorted.
func (d Demand) Reservations() []Op {
	ops := make([]Op, 0, len(d))
	for k, amount := range d {
		if amount == 0 {
			continue
		}
		ops = append(ops, Op{Key: k, Amount: amount})
	}

	SortOps(ops)
	return ops
}

// Releases returns one release op per cell, sorted.
func (d Demand) Releases() []Op {
	ops := d.Reservations()
	for i := range ops {
		ops[i].Amount = -ops[i].Amount
	}

	return ops
}

// Delta returns the ops that move the ledger from previous to d. Unchanged cells are skipped.
func (d Demand) Delta(previous Demand) []Op {
	ops := make([]Op, 0, len(d)+len(previous))

	for k, amount := range d {
		if diff := amount - previous[k]; diff != 0 {
			ops = append(ops, Op{Key: k, Amount: diff})
		}
	}

	for k, amount := range previous {
		if _, ok := d[k]; !ok && amount != 0 {
			ops = append(ops, Op{Key: k, Amount: -amount})
		}
	}

	SortOps(ops)
	return ops
}
