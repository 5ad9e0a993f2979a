package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotals_FlatFeeBelowThreshold(t *testing.T) {
	p := Pricing{FreeShippingThresholdCents: 500000, ShippingFeeCents: 30000}

	fee, total := p.Totals(499999)
	assert.Equal(t, int64(30000), fee)
	assert.Equal(t, int64(529999), total)
}

func TestTotals_FreeAtThreshold(t *testing.T) {
	p := Pricing{FreeShippingThresholdCents: 500000, ShippingFeeCents: 30000}

	fee, total := p.Totals(500000)
	assert.Equal(t, int64(0), fee)
	assert.Equal(t, int64(500000), total)

	fee, total = p.Totals(750000)
	assert.Equal(t, int64(0), fee)
	assert.Equal(t, int64(750000), total)
}

// total == subtotal + fee for any subtotal.
func TestTotals_Identity(t *testing.T) {
	p := Pricing{FreeShippingThresholdCents: 500000, ShippingFeeCents: 30000}
	for _, sub := range []int64{0, 1, 29999, 499999, 500000, 1000000} {
		fee, total := p.Totals(sub)
		assert.Equal(t, sub+fee, total, "subtotal %d", sub)
	}
}
