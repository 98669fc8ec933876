package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	lines := []Line{{PriceNGN: 10000, Quantity: 2}, {PriceNGN: 2500, Quantity: 1}}

	got := ComputeTotals(lines, 5000, 1500)

	assert.Equal(t, Totals{SubtotalNGN: 22500, DiscountNGN: 5000, ShippingNGN: 1500, TotalNGN: 19000}, got)
}

func TestComputeTotals_ClampsDiscount(t *testing.T) {
	lines := []Line{{PriceNGN: 3000, Quantity: 1}}

	over := ComputeTotals(lines, 9999, 0)
	assert.Equal(t, int64(3000), over.DiscountNGN)
	assert.Equal(t, int64(0), over.TotalNGN)

	negative := ComputeTotals(lines, -10, 500)
	assert.Equal(t, int64(0), negative.DiscountNGN)
	assert.Equal(t, int64(3500), negative.TotalNGN)
}

func TestComputeTotals_Invariant(t *testing.T) {
	cases := []struct {
		lines              []Line
		discount, shipping int64
	}{
		{nil, 0, 0},
		{[]Line{{PriceNGN: 1, Quantity: 1}}, 1, 0},
		{[]Line{{PriceNGN: 45000, Quantity: 3}, {PriceNGN: 12000, Quantity: 1}}, 14700, 2500},
		{[]Line{{PriceNGN: 700, Quantity: 10}}, 100000, 0},
	}
	for _, tc := range cases {
		got := ComputeTotals(tc.lines, tc.discount, tc.shipping)
		assert.Equal(t, Subtotal(tc.lines), got.SubtotalNGN)
		assert.Equal(t, got.SubtotalNGN-got.DiscountNGN+got.ShippingNGN, got.TotalNGN)
		assert.GreaterOrEqual(t, got.DiscountNGN, int64(0))
		assert.LessOrEqual(t, got.DiscountNGN, got.SubtotalNGN)
	}
}

func TestShippingPolicy_Quote(t *testing.T) {
	p := NewShippingPolicy(2500, 100000, map[string]int64{"Lagos": 1500, " FCT ": 2000})

	assert.Equal(t, int64(1500), p.Quote("lagos", 20000))
	assert.Equal(t, int64(2000), p.Quote("fct", 20000))
	assert.Equal(t, int64(2500), p.Quote("Kano", 20000))
	assert.Equal(t, int64(0), p.Quote("Lagos", 100000))

	noFree := NewShippingPolicy(2500, 0, nil)
	assert.Equal(t, int64(2500), noFree.Quote("Lagos", 5_000_000))
}
