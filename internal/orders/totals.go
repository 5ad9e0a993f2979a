package orders

// Pricing computes order totals. Shipping is free at or above the
// threshold, a flat fee below it; totals are fixed at creation and
// stored, never recomputed.
type Pricing struct {
	FreeShippingThresholdCents int64
	ShippingFeeCents           int64
}

func (p Pricing) Totals(subtotalCents int64) (feeCents, totalCents int64) {
	if subtotalCents < p.FreeShippingThresholdCents {
		feeCents = p.ShippingFeeCents
	}
	return feeCents, subtotalCents + feeCents
}
