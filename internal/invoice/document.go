// Package invoice assembles the printable invoice document for an order:
// issuer header, metadata, customer block, itemized table, totals with the
// amount in words, payment status and the legal footer. The document is
// plain data; rendering to 80mm receipt HTML lives in html.go and PDF
// export in the export package.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuer holds the fixed business identity printed on every invoice. It is
// injected from configuration; the renderer carries no hardcoded identity.
type Issuer struct {
	Name         string
	Tagline      string
	GSTIN        string
	PAN          string
	Phone        string
	Jurisdiction string
}

// CustomerBlock is the ship-to section. Omitted from the document when the
// order has no address attached.
type CustomerBlock struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zipcode string `json:"zipcode,omitempty"`
}

// ItemRow is one line of the itemized table.
type ItemRow struct {
	Index          int             `json:"index"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	TaxRatePercent decimal.Decimal `json:"taxRatePercent"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
}

// TaxRow is one bucket of the totals block's tax breakdown, sorted by rate
// ascending.
type TaxRow struct {
	RatePercent decimal.Decimal `json:"ratePercent"`
	Amount      decimal.Decimal `json:"amount"`
}

// TotalsBlock is the price calculation section.
type TotalsBlock struct {
	ItemCount     int             `json:"itemCount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxBreakdown  []TaxRow        `json:"taxBreakdown"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	ShippingLabel string          `json:"shippingLabel"`
	TotalShipping decimal.Decimal `json:"totalShipping"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	AmountInWords string          `json:"amountInWords"`
}

// PaymentBlock is the payment status section.
type PaymentBlock struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

// FooterBlock is the fixed legal footer.
type FooterBlock struct {
	Phone    string   `json:"phone,omitempty"`
	PAN      string   `json:"pan,omitempty"`
	GSTIN    string   `json:"gstin,omitempty"`
	Terms    []string `json:"terms"`
	ThankYou string   `json:"thankYou"`
}

// Document is the complete invoice description in fixed block order. It is
// built once per render request and never mutated; identical input yields an
// identical document.
type Document struct {
	BusinessName   string         `json:"businessName"`
	Tagline        string         `json:"tagline,omitempty"`
	GSTIN          string         `json:"gstin,omitempty"`
	InvoiceNumber  string         `json:"invoiceNumber"`
	Date           string         `json:"date"`
	Time           string         `json:"time"`
	TransactionRef string         `json:"transactionRef"`
	Customer       *CustomerBlock `json:"customer,omitempty"`
	Items          []ItemRow      `json:"items"`
	Totals         TotalsBlock    `json:"totals"`
	Payment        PaymentBlock   `json:"payment"`
	Footer         FooterBlock    `json:"footer"`

	issuedAt time.Time
}

// IssuedAt reports the order timestamp the document was built from.
func (d Document) IssuedAt() time.Time { return d.issuedAt }

// FileName returns the artifact name for a downloaded invoice.
func (d Document) FileName(ext string) string {
	return "Invoice_" + d.InvoiceNumber + "." + ext
}
