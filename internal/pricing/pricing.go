// Package pricing computes order totals. All arithmetic is fixed-point
// decimal; rounding happens only when converting to gateway minor units.
package pricing

import "github.com/shopspring/decimal"

// Flat-rate shipping, independent of weight, destination and quantity.
var (
	FlatShippingBGN = decimal.RequireFromString("5.00")
	FlatShippingEUR = decimal.RequireFromString("2.50")
)

// Line is one order line as the calculator sees it: snapshotted unit prices
// in both currencies plus a quantity.
type Line struct {
	UnitPriceBGN decimal.Decimal
	UnitPriceEUR decimal.Decimal
	Quantity     int
}

type Totals struct {
	SubtotalBGN decimal.Decimal
	SubtotalEUR decimal.Decimal
	ShippingBGN decimal.Decimal
	ShippingEUR decimal.Decimal
	TotalBGN    decimal.Decimal
	TotalEUR    decimal.Decimal
}

// Compute returns the totals for the given lines. With no lines everything is
// zero and shipping is not applied; shipping is only charged once at least
// one item exists.
func Compute(lines []Line) Totals {
	var t Totals
	t.SubtotalBGN = decimal.Zero
	t.SubtotalEUR = decimal.Zero
	t.ShippingBGN = decimal.Zero
	t.ShippingEUR = decimal.Zero
	t.TotalBGN = decimal.Zero
	t.TotalEUR = decimal.Zero

	if len(lines) == 0 {
		return t
	}

	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		t.SubtotalBGN = t.SubtotalBGN.Add(l.UnitPriceBGN.Mul(qty))
		t.SubtotalEUR = t.SubtotalEUR.Add(l.UnitPriceEUR.Mul(qty))
	}
	t.ShippingBGN = FlatShippingBGN
	t.ShippingEUR = FlatShippingEUR
	t.TotalBGN = t.SubtotalBGN.Add(t.ShippingBGN)
	t.TotalEUR = t.SubtotalEUR.Add(t.ShippingEUR)
	return t
}

// MinorUnits converts an amount to integer minor units (stotinki, cents),
// rounding half up at two decimal places.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
