package bookings

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ReceiptItem struct {
	Label     string          `json:"label"`
	RoomType  RoomType        `json:"roomType"`
	Count     int             `json:"count"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Receipt struct {
	Currency string          `json:"currency"`
	Items    []ReceiptItem   `json:"items"`
	Nights   int             `json:"nights"`
	PerNight decimal.Decimal `json:"perNight"`
	Total    decimal.Decimal `json:"total"`
}

func (c Catalog) Receipt(plan RoomPlan, nights int) Receipt {
	n := decimal.NewFromInt(int64(nights))

	items := make([]ReceiptItem, 0, len(plan.Types))
	for _, t := range plan.Types {
		count := plan.Counts[t]
		unit := c.specs[t].UnitPrice

		items = append(items, ReceiptItem{
			Label:     fmt.Sprintf("%s × %d", t, count),
			RoomType:  t,
			Count:     count,
			UnitPrice: unit,
			Subtotal:  unit.Mul(decimal.NewFromInt(int64(count))).Mul(n),
		})
	}

	return Receipt{
		Currency: Currency,
		Items:    items,
		Nights:   nights,
		PerNight: plan.PerNightTotal,
		Total:    plan.PerNightTotal.Mul(n),
	}
}
