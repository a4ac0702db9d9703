package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		totals := Compute([]Line{{
			UnitPriceBGN: d("10.00"),
			UnitPriceEUR: d("5.00"),
			Quantity:     3,
		}})

		assert.True(t, totals.SubtotalBGN.Equal(d("30.00")), "subtotal BGN = %s", totals.SubtotalBGN)
		assert.True(t, totals.SubtotalEUR.Equal(d("15.00")), "subtotal EUR = %s", totals.SubtotalEUR)
		assert.True(t, totals.ShippingBGN.Equal(d("5.00")))
		assert.True(t, totals.ShippingEUR.Equal(d("2.50")))
		assert.True(t, totals.TotalBGN.Equal(d("35.00")), "total BGN = %s", totals.TotalBGN)
		assert.True(t, totals.TotalEUR.Equal(d("17.50")), "total EUR = %s", totals.TotalEUR)
	})

	t.Run("multiple lines sum exactly", func(t *testing.T) {
		totals := Compute([]Line{
			{UnitPriceBGN: d("0.10"), UnitPriceEUR: d("0.05"), Quantity: 3},
			{UnitPriceBGN: d("19.99"), UnitPriceEUR: d("10.22"), Quantity: 2},
		})

		// 0.30 + 39.98, no binary floating point drift
		assert.True(t, totals.SubtotalBGN.Equal(d("40.28")), "subtotal BGN = %s", totals.SubtotalBGN)
		assert.True(t, totals.SubtotalEUR.Equal(d("20.59")), "subtotal EUR = %s", totals.SubtotalEUR)
		assert.True(t, totals.TotalBGN.Equal(totals.SubtotalBGN.Add(FlatShippingBGN)))
		assert.True(t, totals.TotalEUR.Equal(totals.SubtotalEUR.Add(FlatShippingEUR)))
	})

	t.Run("no lines means zero totals and no shipping", func(t *testing.T) {
		totals := Compute(nil)

		assert.True(t, totals.SubtotalBGN.IsZero())
		assert.True(t, totals.SubtotalEUR.IsZero())
		assert.True(t, totals.ShippingBGN.IsZero())
		assert.True(t, totals.ShippingEUR.IsZero())
		assert.True(t, totals.TotalBGN.IsZero())
		assert.True(t, totals.TotalEUR.IsZero())
	})
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"10.00", 1000},
		{"5.00", 500},
		{"0.01", 1},
		{"0", 0},
		{"19.99", 1999},
		{"10.005", 1001}, // half rounds up
		{"10.004", 1000},
		{"2.675", 268},
	}
	for _, c := range cases {
		got := MinorUnits(decimal.RequireFromString(c.amount))
		require.Equal(t, c.want, got, "amount %s", c.amount)
	}
}
