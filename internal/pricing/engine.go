// Package pricing computes per-line and order-level totals for stored order
// snapshots: item subtotal, GST amount, shipping charge, and the aggregate
// breakdown shown on invoices.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/greenmantra/backend-store/internal/money"
)

// DefaultTaxRatePercent applies when a product snapshot predates the
// gstPercentage field.
var DefaultTaxRatePercent = decimal.NewFromInt(5)

// LineItem describes one product line of an order as stored at order time.
// Optional fields left at their zero value are resolved to documented
// defaults by ComputeLine; historical orders reference snapshots that may
// lack newer fields, and incomplete input must never fail.
type LineItem struct {
	UnitPrice             decimal.Decimal
	Quantity              int
	TaxRatePercent        *decimal.Decimal
	ShippingChargePerUnit decimal.Decimal
}

// LineItemTotals holds the derived amounts for a single line.
type LineItemTotals struct {
	Subtotal       decimal.Decimal
	TaxRatePercent decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	Total          decimal.Decimal
}

// TaxLine is one bucket of the per-rate tax breakdown.
type TaxLine struct {
	RatePercent decimal.Decimal
	Amount      decimal.Decimal
}

// OrderTotals aggregates all line items of an order.
type OrderTotals struct {
	Subtotal      decimal.Decimal
	TaxByRate     []TaxLine
	TotalTax      decimal.Decimal
	TotalShipping decimal.Decimal
	GrandTotal    decimal.Decimal
}

// ComputeLine derives the totals of a single line item. Pure; malformed
// input is resolved to safe defaults (quantity 1, unit price 0, tax 5%,
// shipping 0) rather than rejected.
func ComputeLine(item LineItem) LineItemTotals {
	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}
	unitPrice := item.UnitPrice
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}
	rate := DefaultTaxRatePercent
	if item.TaxRatePercent != nil {
		rate = *item.TaxRatePercent
	}
	shippingPerUnit := item.ShippingChargePerUnit

	quantity := decimal.NewFromInt(int64(qty))
	subtotal := money.Round2(unitPrice.Mul(quantity))
	tax := money.Round2(subtotal.Mul(rate).Div(decimal.NewFromInt(100)))
	shipping := money.Round2(shippingPerUnit.Mul(quantity))

	return LineItemTotals{
		Subtotal:       subtotal,
		TaxRatePercent: rate,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		Total:          subtotal.Add(tax).Add(shipping),
	}
}

// ComputeOrder aggregates all line items into order totals. Each component
// (subtotal, total tax, total shipping) is rounded before the grand-total
// sum so the displayed breakdown always adds up to the displayed grand
// total. Independent per-item rounding can still drift from the aggregate by
// a paisa on adversarial rate/price combinations; that residue is accepted
// rather than reconciled. An empty item list yields all-zero totals.
func ComputeOrder(items []LineItem) OrderTotals {
	subtotal := decimal.Zero
	totalTax := decimal.Zero
	totalShipping := decimal.Zero
	buckets := map[string]TaxLine{}

	for _, item := range items {
		line := ComputeLine(item)
		subtotal = subtotal.Add(line.Subtotal)
		totalTax = totalTax.Add(line.TaxAmount)
		totalShipping = totalShipping.Add(line.ShippingAmount)

		key := line.TaxRatePercent.String()
		bucket, ok := buckets[key]
		if !ok {
			bucket = TaxLine{RatePercent: line.TaxRatePercent}
		}
		bucket.Amount = bucket.Amount.Add(line.TaxAmount)
		buckets[key] = bucket
	}

	taxByRate := make([]TaxLine, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.Amount = money.Round2(bucket.Amount)
		taxByRate = append(taxByRate, bucket)
	}
	sort.Slice(taxByRate, func(i, j int) bool {
		return taxByRate[i].RatePercent.LessThan(taxByRate[j].RatePercent)
	})

	subtotal = money.Round2(subtotal)
	totalTax = money.Round2(totalTax)
	totalShipping = money.Round2(totalShipping)

	return OrderTotals{
		Subtotal:      subtotal,
		TaxByRate:     taxByRate,
		TotalTax:      totalTax,
		TotalShipping: totalShipping,
		GrandTotal:    subtotal.Add(totalTax).Add(totalShipping),
	}
}

// TaxAt returns the summed tax amount at an exact rate, reporting whether
// the rate has a bucket.
func (t OrderTotals) TaxAt(rate decimal.Decimal) (decimal.Decimal, bool) {
	for _, line := range t.TaxByRate {
		if line.RatePercent.Equal(rate) {
			return line.Amount, true
		}
	}
	return decimal.Zero, false
}
