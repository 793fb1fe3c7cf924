package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func item(qty, rate int64, taxable bool) EstimateLineItem {
	return EstimateLineItem{Quantity: qty, UnitRate: rate, Taxable: taxable}
}

func TestComputeTotalsBasicTax(t *testing.T) {
	items := []EstimateLineItem{item(2, 5000, true)}

	totals := ComputeTotals(items, DiscountNone, 0, 800)

	assert.Equal(t, int64(10000), totals.Subtotal)
	assert.Equal(t, int64(0), totals.DiscountAmount)
	assert.Equal(t, int64(10000), totals.TaxableSubtotal)
	assert.Equal(t, int64(800), totals.TaxAmount)
	assert.Equal(t, int64(10800), totals.TotalAmount)
}

func TestComputeTotalsNonTaxableExcluded(t *testing.T) {
	items := []EstimateLineItem{
		item(1, 10000, true),
		item(1, 5000, false),
	}

	totals := ComputeTotals(items, DiscountNone, 0, 1000)

	assert.Equal(t, int64(15000), totals.Subtotal)
	assert.Equal(t, int64(10000), totals.TaxableSubtotal)
	assert.Equal(t, int64(1000), totals.TaxAmount)
	assert.Equal(t, int64(16000), totals.TotalAmount)
}

func TestComputeTotalsPercentDiscount(t *testing.T) {
	items := []EstimateLineItem{item(1, 20000, true)}

	// 10% discount in basis points.
	totals := ComputeTotals(items, DiscountPercent, 1000, 825)

	assert.Equal(t, int64(20000), totals.Subtotal)
	assert.Equal(t, int64(2000), totals.DiscountAmount)
	// Discount does not shrink the taxable base.
	assert.Equal(t, int64(1650), totals.TaxAmount)
	assert.Equal(t, int64(19650), totals.TotalAmount)
}

func TestComputeTotalsFlatDiscountClamped(t *testing.T) {
	items := []EstimateLineItem{item(1, 5000, true)}

	totals := ComputeTotals(items, DiscountFlat, 99999, 0)

	assert.Equal(t, int64(5000), totals.DiscountAmount)
	assert.Equal(t, int64(0), totals.TotalAmount)
}

func TestComputeTotalsNegativeDiscountIgnored(t *testing.T) {
	items := []EstimateLineItem{item(1, 5000, true)}

	totals := ComputeTotals(items, DiscountFlat, -100, 0)

	assert.Equal(t, int64(0), totals.DiscountAmount)
	assert.Equal(t, int64(5000), totals.TotalAmount)
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 825 bps of 101 minor units is 8.3325, rounds to 8.
	totals := ComputeTotals([]EstimateLineItem{item(1, 101, true)}, DiscountNone, 0, 825)
	assert.Equal(t, int64(8), totals.TaxAmount)

	// 500 bps of 110 is exactly 5.5, half up rounds to 6.
	totals = ComputeTotals([]EstimateLineItem{item(1, 110, true)}, DiscountNone, 0, 500)
	assert.Equal(t, int64(6), totals.TaxAmount)
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, DiscountPercent, 1000, 825)

	assert.Equal(t, int64(0), totals.Subtotal)
	assert.Equal(t, int64(0), totals.TotalAmount)
}

func TestComputeTotalsInvariant(t *testing.T) {
	cases := []struct {
		name          string
		items         []EstimateLineItem
		discountType  DiscountType
		discountValue int64
		taxRateBps    int64
	}{
		{"no discount", []EstimateLineItem{item(3, 333, true)}, DiscountNone, 0, 825},
		{"percent", []EstimateLineItem{item(7, 999, true), item(2, 50, false)}, DiscountPercent, 1500, 700},
		{"flat", []EstimateLineItem{item(1, 12345, true)}, DiscountFlat, 345, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals(tc.items, tc.discountType, tc.discountValue, tc.taxRateBps)
			assert.Equal(t, totals.TotalAmount, totals.Subtotal-totals.DiscountAmount+totals.TaxAmount)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPendingApproval))
	assert.True(t, CanTransition(StatusPendingApproval, StatusPendingApproval))
	assert.True(t, CanTransition(StatusScheduled, StatusNeedsScheduling))
	assert.True(t, CanTransition(StatusRejected, StatusPendingApproval))

	assert.False(t, CanTransition(StatusDraft, StatusScheduled))
	assert.False(t, CanTransition(StatusInvoiced, StatusDraft))
	assert.False(t, CanTransition(StatusCompleted, StatusInvoiced))
	assert.False(t, CanTransition(StatusNeedsScheduling, StatusPendingApproval))
}

func TestDecisionRecorded(t *testing.T) {
	e := &Estimate{ApprovalCycle: 2}
	assert.False(t, e.DecisionRecorded())

	decided := int64(1)
	e.DecidedCycle = &decided
	assert.False(t, e.DecisionRecorded(), "stale decision from a previous cycle")

	decided = 2
	assert.True(t, e.DecisionRecorded())
}
