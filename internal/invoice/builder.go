package invoice

import (
	"strings"

	"github.com/greenmantra/backend-store/internal/money"
	"github.com/greenmantra/backend-store/internal/order"
	"github.com/greenmantra/backend-store/internal/pricing"
	"github.com/greenmantra/backend-store/internal/words"
)

const (
	// nameCap bounds product names in the item table of the 80mm slip.
	nameCap = 25
	// txnRefLen bounds the transaction reference the same way.
	txnRefLen = 12

	shippingFree = "FREE"
	fallbackName = "Product"
	paidLabel    = "PAID"
	pendingLabel = "PENDING"
	defaultMode  = "ONLINE"
)

// Build assembles the invoice document for an order from its recomputed
// totals. Pure assembly: no I/O, no mutation of inputs.
func Build(o order.Order, totals pricing.OrderTotals, issuer Issuer) Document {
	doc := Document{
		BusinessName:   issuer.Name,
		Tagline:        issuer.Tagline,
		GSTIN:          issuer.GSTIN,
		InvoiceNumber:  o.Reference(),
		Date:           o.CreatedAt.Format("02/01/2006"),
		Time:           o.CreatedAt.Format("03:04 PM"),
		TransactionRef: truncateRef(o.TransactionID, txnRefLen),
		Customer:       customerBlock(o.Address),
		Items:          itemRows(o.Items),
		Totals:         totalsBlock(len(o.Items), totals),
		Payment:        paymentBlock(o),
		Footer: FooterBlock{
			Phone: issuer.Phone,
			PAN:   issuer.PAN,
			GSTIN: issuer.GSTIN,
			Terms: []string{
				"Computer generated invoice. E. & O. E.",
				"Goods sold are not returnable.",
				"Subject to " + issuer.Jurisdiction + " jurisdiction.",
			},
			ThankYou: "Thank you for shopping with us!",
		},
		issuedAt: o.CreatedAt,
	}
	return doc
}

func customerBlock(a *order.Address) *CustomerBlock {
	if a == nil {
		return nil
	}
	return &CustomerBlock{
		Name:    strings.TrimSpace(a.Firstname + " " + a.Lastname),
		Phone:   a.Phone,
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Zipcode: a.Zipcode,
	}
}

func itemRows(items []order.Item) []ItemRow {
	rows := make([]ItemRow, 0, len(items))
	for i, it := range items {
		line := pricing.ComputeLine(it.LineItem())
		name := strings.TrimSpace(it.Product.Name)
		if name == "" {
			name = fallbackName
		}
		rows = append(rows, ItemRow{
			Index:          i + 1,
			Name:           truncateName(name, nameCap),
			Quantity:       quantityOrOne(it.Quantity),
			UnitPrice:      money.Round2(it.Product.UnitPrice()),
			TaxRatePercent: line.TaxRatePercent,
			TaxAmount:      line.TaxAmount,
			Total:          line.Total,
		})
	}
	return rows
}

func totalsBlock(itemCount int, totals pricing.OrderTotals) TotalsBlock {
	breakdown := make([]TaxRow, 0, len(totals.TaxByRate))
	for _, line := range totals.TaxByRate {
		breakdown = append(breakdown, TaxRow{RatePercent: line.RatePercent, Amount: line.Amount})
	}
	label := shippingFree
	if totals.TotalShipping.IsPositive() {
		label = money.Format2(totals.TotalShipping)
	}
	return TotalsBlock{
		ItemCount:     itemCount,
		Subtotal:      totals.Subtotal,
		TaxBreakdown:  breakdown,
		TotalTax:      totals.TotalTax,
		ShippingLabel: label,
		TotalShipping: totals.TotalShipping,
		GrandTotal:    totals.GrandTotal,
		AmountInWords: words.InRupees(totals.GrandTotal),
	}
}

func paymentBlock(o order.Order) PaymentBlock {
	status := pendingLabel
	if o.IsPaid {
		status = paidLabel
	}
	method := strings.ToUpper(strings.TrimSpace(o.PaymentType))
	if method == "" {
		method = defaultMode
	}
	return PaymentBlock{Status: status, Method: method}
}

func quantityOrOne(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit]) + "..."
}

func truncateRef(ref string, n int) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "N/A"
	}
	if len(trimmed) <= n {
		return trimmed
	}
	return trimmed[len(trimmed)-n:]
}
