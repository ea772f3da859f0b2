package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ratePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeLineSingleItem(t *testing.T) {
	t.Parallel()

	line := pricing.ComputeLine(pricing.LineItem{
		UnitPrice:      dec("100"),
		Quantity:       2,
		TaxRatePercent: ratePtr("5"),
	})
	require.True(t, line.Subtotal.Equal(dec("200")), "subtotal %s", line.Subtotal)
	require.True(t, line.TaxAmount.Equal(dec("10")), "tax %s", line.TaxAmount)
	require.True(t, line.ShippingAmount.IsZero(), "shipping %s", line.ShippingAmount)
	require.True(t, line.Total.Equal(dec("210")), "total %s", line.Total)
}

func TestComputeLineDefaults(t *testing.T) {
	t.Parallel()

	// A bare item (missing quantity, price, rate) must not fail: the safe
	// defaults are quantity 1, price 0, and the 5% default GST rate.
	line := pricing.ComputeLine(pricing.LineItem{})
	require.True(t, line.Subtotal.IsZero())
	require.True(t, line.TaxAmount.IsZero())
	require.True(t, line.Total.IsZero())
	require.True(t, line.TaxRatePercent.Equal(dec("5")))
}

func TestComputeLineShippingCharge(t *testing.T) {
	t.Parallel()

	line := pricing.ComputeLine(pricing.LineItem{
		UnitPrice:             dec("200"),
		Quantity:              1,
		TaxRatePercent:        ratePtr("12"),
		ShippingChargePerUnit: dec("20"),
	})
	require.True(t, line.Subtotal.Equal(dec("200")))
	require.True(t, line.TaxAmount.Equal(dec("24")))
	require.True(t, line.ShippingAmount.Equal(dec("20")))
	require.True(t, line.Total.Equal(dec("244")))
}

func TestComputeOrderTwoRates(t *testing.T) {
	t.Parallel()

	totals := pricing.ComputeOrder([]pricing.LineItem{
		{UnitPrice: dec("50"), Quantity: 1, TaxRatePercent: ratePtr("5")},
		{UnitPrice: dec("200"), Quantity: 1, TaxRatePercent: ratePtr("12"), ShippingChargePerUnit: dec("20")},
	})

	require.True(t, totals.Subtotal.Equal(dec("250")), "subtotal %s", totals.Subtotal)
	require.True(t, totals.TotalTax.Equal(dec("26.50")), "tax %s", totals.TotalTax)
	require.True(t, totals.TotalShipping.Equal(dec("20")), "shipping %s", totals.TotalShipping)
	require.True(t, totals.GrandTotal.Equal(dec("296.50")), "grand %s", totals.GrandTotal)

	require.Len(t, totals.TaxByRate, 2)
	at5, ok := totals.TaxAt(dec("5"))
	require.True(t, ok)
	require.True(t, at5.Equal(dec("2.50")))
	at12, ok := totals.TaxAt(dec("12"))
	require.True(t, ok)
	require.True(t, at12.Equal(dec("24")))
}

func TestComputeOrderBucketsMergeByExactRate(t *testing.T) {
	t.Parallel()

	totals := pricing.ComputeOrder([]pricing.LineItem{
		{UnitPrice: dec("100"), Quantity: 1, TaxRatePercent: ratePtr("5")},
		{UnitPrice: dec("100"), Quantity: 1, TaxRatePercent: ratePtr("5")},
		{UnitPrice: dec("100"), Quantity: 1, TaxRatePercent: ratePtr("5.5")},
	})

	// Two 5% items share one bucket; 5.5% stays separate and sorts after 5.
	require.Len(t, totals.TaxByRate, 2)
	require.True(t, totals.TaxByRate[0].RatePercent.Equal(dec("5")))
	require.True(t, totals.TaxByRate[0].Amount.Equal(dec("10")))
	require.True(t, totals.TaxByRate[1].RatePercent.Equal(dec("5.5")))
	require.True(t, totals.TaxByRate[1].Amount.Equal(dec("5.50")))
}

func TestComputeOrderEmpty(t *testing.T) {
	t.Parallel()

	totals := pricing.ComputeOrder(nil)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.TotalTax.IsZero())
	require.True(t, totals.TotalShipping.IsZero())
	require.True(t, totals.GrandTotal.IsZero())
	require.Empty(t, totals.TaxByRate)
}

func TestGrandTotalMatchesLineSum(t *testing.T) {
	t.Parallel()

	items := []pricing.LineItem{
		{UnitPrice: dec("33.33"), Quantity: 3, TaxRatePercent: ratePtr("5")},
		{UnitPrice: dec("19.99"), Quantity: 7, TaxRatePercent: ratePtr("12"), ShippingChargePerUnit: dec("1.25")},
		{UnitPrice: dec("0.01"), Quantity: 13, TaxRatePercent: ratePtr("18")},
		{UnitPrice: dec("499.50"), Quantity: 2},
	}

	totals := pricing.ComputeOrder(items)
	lineSum := decimal.Zero
	for _, item := range items {
		lineSum = lineSum.Add(pricing.ComputeLine(item).Total)
	}

	// Components are rounded before the grand-total sum, so the aggregate may
	// drift from the per-line sum by at most a paisa per item.
	drift := totals.GrandTotal.Sub(lineSum).Abs()
	tolerance := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(len(items))))
	require.True(t, drift.LessThanOrEqual(tolerance), "drift %s exceeds %s", drift, tolerance)
}
