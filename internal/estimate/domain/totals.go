package domain

// Totals carries the derived money fields for an estimate.
type Totals struct {
	Subtotal        int64
	DiscountAmount  int64
	TaxableSubtotal int64
	TaxAmount       int64
	TotalAmount     int64
}

// ComputeTotals derives all money fields from the line items. All amounts
// are integer minor units; percentages are basis points with half-up
// rounding. The invariant Total == Subtotal - DiscountAmount + TaxAmount
// holds for every input.
func ComputeTotals(items []EstimateLineItem, discountType DiscountType, discountValue, taxRateBps int64) Totals {
	var subtotal, taxableSubtotal int64
	for _, item := range items {
		amount := item.Quantity * item.UnitRate
		subtotal += amount
		if item.Taxable {
			taxableSubtotal += amount
		}
	}

	var discountAmount int64
	switch discountType {
	case DiscountPercent:
		discountAmount = roundBps(subtotal, discountValue)
	case DiscountFlat:
		discountAmount = discountValue
	}
	if discountAmount > subtotal {
		discountAmount = subtotal
	}
	if discountAmount < 0 {
		discountAmount = 0
	}

	// Tax applies to the taxable subtotal only; non-taxable lines are
	// excluded and the discount does not change the taxable base.
	taxAmount := roundBps(taxableSubtotal, taxRateBps)

	return Totals{
		Subtotal:        subtotal,
		DiscountAmount:  discountAmount,
		TaxableSubtotal: taxableSubtotal,
		TaxAmount:       taxAmount,
		TotalAmount:     subtotal - discountAmount + taxAmount,
	}
}

// Apply copies derived totals onto the estimate.
func (t Totals) Apply(e *Estimate) {
	e.Subtotal = t.Subtotal
	e.DiscountAmount = t.DiscountAmount
	e.TaxableSubtotal = t.TaxableSubtotal
	e.TaxAmount = t.TaxAmount
	e.TotalAmount = t.TotalAmount
}

// RecalculateAmounts stamps each line's derived amount and position.
func RecalculateAmounts(items []EstimateLineItem) {
	for i := range items {
		items[i].Amount = items[i].Quantity * items[i].UnitRate
		items[i].Position = int64(i)
	}
}

// roundBps multiplies amount by a basis-point rate, rounding half up.
func roundBps(amount, bps int64) int64 {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*bps + 5000) / 10000
}
