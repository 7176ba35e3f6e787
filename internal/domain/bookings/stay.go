package bookings

// Stay is a check-in/check-out pair expanded into the nights it occupies.
// The check-out day itself is not a night of the stay.
type Stay struct {
	CheckIn  Date
	CheckOut Date
	Nights   []Date
}

func (s Stay) NightCount() int {
	return len(s.Nights)
}

func ExpandStay(checkIn, checkOut string) (Stay, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return Stay{}, NewValidationError(ErrInvalidDate, "checkIn", "%s", err.Error())
	}

	out, err := ParseDate(checkOut)
	if err != nil {
		return Stay{}, NewValidationError(ErrInvalidDate, "checkOut", "%s", err.Error())
	}

	return NewStay(in, out)
}

func NewStay(checkIn, checkOut Date) (Stay, error) {
	nights := checkIn.DaysUntil(checkOut)
	if nights <= 0 {
		return Stay{}, NewValidationError(
			ErrInvalidRange,
			"checkOut",
			"checkOut %s must be after checkIn %s",
			checkOut,
			checkIn,
		)
	}

	keys := make([]Date, 0, nights)
	for i := 0; i < nights; i++ {
		keys = append(keys, checkIn.AddDays(i))
	}

	return Stay{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Nights:   keys,
	}, nil
}
