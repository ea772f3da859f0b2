package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/order"
)

func floatPtr(v float64) *float64 { return &v }

func TestUnitPricePrefersOfferPrice(t *testing.T) {
	t.Parallel()

	snap := order.ProductSnapshot{Price: 120, OfferPrice: floatPtr(100)}
	require.True(t, snap.UnitPrice().Equal(decimal.NewFromInt(100)))

	snap = order.ProductSnapshot{Price: 120}
	require.True(t, snap.UnitPrice().Equal(decimal.NewFromInt(120)))
}

func TestLineItemDefaultsForOldSnapshots(t *testing.T) {
	t.Parallel()

	// Snapshot predating gstPercentage/shippingCharges: pricing falls back to
	// the 5% default rate and free shipping.
	item := order.Item{Quantity: 2, Product: order.ProductSnapshot{Name: "Organic Compost", Price: 100}}
	totals := order.Order{Items: []order.Item{item}}.Totals()

	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", totals.Subtotal)
	require.True(t, totals.TotalTax.Equal(decimal.NewFromInt(10)), "tax %s", totals.TotalTax)
	require.True(t, totals.TotalShipping.IsZero())
	require.True(t, totals.GrandTotal.Equal(decimal.NewFromInt(210)), "grand %s", totals.GrandTotal)
	require.Len(t, totals.TaxByRate, 1)
	require.True(t, totals.TaxByRate[0].RatePercent.Equal(decimal.NewFromInt(5)))
}

func TestTotalsEmptyOrder(t *testing.T) {
	t.Parallel()

	totals := order.Order{}.Totals()
	require.True(t, totals.GrandTotal.IsZero())
	require.Empty(t, totals.TaxByRate)
}

func TestReference(t *testing.T) {
	t.Parallel()

	o := order.Order{ID: "3f2b8c41-93ac-4f10-9d5e-08a51f2c7d94"}
	require.Equal(t, "1f2c7d94", o.Reference())

	short := order.Order{ID: "abc123"}
	require.Equal(t, "abc123", short.Reference())
}
