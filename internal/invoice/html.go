package invoice

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/greenmantra/backend-store/internal/money"
)

// RenderOptions controls the HTML rendering of a document.
type RenderOptions struct {
	// AutoPrint injects a script that invokes the print dialog once the page
	// has settled. Used by the print-view endpoint.
	AutoPrint bool
	// PrintSettleDelay in milliseconds before print() fires. The platform
	// gives no reliable content-ready signal for a fresh window, so a fixed
	// settle delay is used. Defaults to 500.
	PrintSettleDelay int
}

var receiptFuncs = template.FuncMap{
	"inr": func(d decimal.Decimal) string { return money.Format2(d) },
	"rate": func(d decimal.Decimal) string {
		return d.String()
	},
}

var receiptTmpl = template.Must(template.New("receipt").Funcs(receiptFuncs).Parse(receiptHTML))

type receiptData struct {
	Document
	AutoPrint        bool
	PrintSettleDelay int
}

// RenderHTML produces the 80mm receipt markup for a document. The same
// markup backs the print view and the PDF export; identical documents
// render to identical markup.
func RenderHTML(doc Document, opts RenderOptions) (string, error) {
	delay := opts.PrintSettleDelay
	if delay <= 0 {
		delay = 500
	}
	var buf bytes.Buffer
	err := receiptTmpl.Execute(&buf, receiptData{
		Document:         doc,
		AutoPrint:        opts.AutoPrint,
		PrintSettleDelay: delay,
	})
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}

const receiptHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.InvoiceNumber}}</title>
<style>
@page { size: 80mm auto; margin: 0; }
* { margin: 0; padding: 0; box-sizing: border-box; font-family: 'Courier New', monospace; }
body { width: 80mm; max-width: 80mm; margin: 0 auto; padding: 5px; background: #fff; font-size: 9px; line-height: 1.1; }
.header { text-align: center; border-bottom: 1px solid #000; padding-bottom: 4px; margin-bottom: 5px; }
.company-name { font-size: 11px; font-weight: bold; text-transform: uppercase; }
.company-tagline { font-size: 7px; color: #555; }
.gst-info { font-size: 6px; font-weight: bold; }
.meta { display: flex; justify-content: space-between; margin-bottom: 5px; font-size: 7px; }
.customer { background: #f5f5f5; border: 1px dashed #888; padding: 4px; margin-bottom: 5px; font-size: 7px; }
.customer-label { font-weight: bold; font-size: 8px; margin-bottom: 2px; }
.items-header, .item-row { display: grid; grid-template-columns: 16px 1fr 20px 36px 38px; gap: 2px; font-size: 7px; }
.items-header { font-weight: bold; border-bottom: 1px solid #000; padding-bottom: 2px; margin-bottom: 2px; }
.item-row { padding: 1px 0; border-bottom: 0.5px dotted #ccc; }
.item-tax { font-size: 6px; color: #666; }
.calc { margin-top: 5px; border-top: 1px solid #000; padding-top: 4px; font-size: 8px; }
.calc-row { display: flex; justify-content: space-between; margin-bottom: 1px; }
.tax-row { display: flex; justify-content: space-between; padding-left: 8px; font-size: 6px; color: #666; }
.grand-total { display: flex; justify-content: space-between; margin-top: 4px; padding-top: 4px; border-top: 1px solid #000; font-size: 9px; font-weight: bold; }
.amount-words { background: #f5f5f5; padding: 3px; margin-top: 3px; font-size: 6px; border-left: 2px solid #000; }
.payment { background: #f5f5f5; padding: 4px; margin-top: 5px; font-size: 7px; }
.payment-row { display: flex; justify-content: space-between; }
.footer { border-top: 1px solid #000; margin-top: 6px; padding-top: 4px; text-align: center; font-size: 6px; }
.terms { color: #666; font-size: 5px; margin-top: 3px; line-height: 1.2; }
.thank-you { font-weight: bold; margin-top: 3px; font-size: 7px; }
</style>
</head>
<body>
<div class="header">
  <div class="company-name">{{.BusinessName}}</div>
  {{- if .Tagline}}
  <div class="company-tagline">{{.Tagline}}</div>
  {{- end}}
  {{- if .GSTIN}}
  <div class="gst-info">GSTIN: {{.GSTIN}}</div>
  {{- end}}
</div>
<div class="meta">
  <div>
    <strong>INV#:</strong> {{.InvoiceNumber}}<br>
    <strong>Date:</strong> {{.Date}}<br>
    <strong>Time:</strong> {{.Time}}
  </div>
  <div style="text-align: right;">
    <strong>TXN ID:</strong><br>
    <span style="font-size: 6px;">{{.TransactionRef}}</span>
  </div>
</div>
{{- with .Customer}}
<div class="customer">
  <div class="customer-label">SHIP TO:</div>
  <div><strong>{{.Name}}</strong></div>
  {{- if .Phone}}
  <div>{{.Phone}}</div>
  {{- end}}
  <div>{{.Street}}</div>
  <div>{{.City}}, {{.State}}</div>
  {{- if .Zipcode}}
  <div>PIN: {{.Zipcode}}</div>
  {{- end}}
</div>
{{- end}}
<div class="items-header">
  <div>#</div><div>Item</div><div>Qty</div><div>Price</div><div>Total</div>
</div>
{{- range .Items}}
<div class="item-row">
  <div>{{.Index}}</div>
  <div>
    <div>{{.Name}}</div>
    <div class="item-tax">GST {{rate .TaxRatePercent}}%: {{inr .TaxAmount}}</div>
  </div>
  <div>{{.Quantity}}</div>
  <div>{{inr .UnitPrice}}</div>
  <div><strong>{{inr .Total}}</strong></div>
</div>
{{- end}}
<div class="calc">
  <div class="calc-row">
    <span>Subtotal ({{.Totals.ItemCount}} items):</span>
    <span>{{inr .Totals.Subtotal}}</span>
  </div>
  {{- range .Totals.TaxBreakdown}}
  <div class="tax-row">
    <span>GST {{rate .RatePercent}}%:</span>
    <span>{{inr .Amount}}</span>
  </div>
  {{- end}}
  <div class="calc-row">
    <span>Total GST:</span>
    <span><strong>{{inr .Totals.TotalTax}}</strong></span>
  </div>
  <div class="calc-row">
    <span>Shipping:</span>
    <span><strong>{{.Totals.ShippingLabel}}</strong></span>
  </div>
  <div class="grand-total">
    <span>TOTAL:</span>
    <span>{{inr .Totals.GrandTotal}}</span>
  </div>
  <div class="amount-words">
    <strong>Amount:</strong> {{.Totals.AmountInWords}} only
  </div>
</div>
<div class="payment">
  <div class="payment-row"><span>Payment:</span><span><strong>{{.Payment.Status}}</strong></span></div>
  <div class="payment-row"><span>Mode:</span><span><strong>{{.Payment.Method}}</strong></span></div>
</div>
<div class="footer">
  {{- if .Footer.Phone}}
  <div><strong>{{.Footer.Phone}}</strong></div>
  {{- end}}
  <div><strong>PAN:</strong> {{.Footer.PAN}} | <strong>GST:</strong> {{.Footer.GSTIN}}</div>
  <div class="terms">
    {{- range .Footer.Terms}}
    {{.}}<br>
    {{- end}}
  </div>
  <div class="thank-you">{{.Footer.ThankYou}}</div>
</div>
{{- if .AutoPrint}}
<script>
window.onload = function () {
  setTimeout(function () { window.print(); }, {{.PrintSettleDelay}});
};
</script>
{{- end}}
</body>
</html>
`
