package invoice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/invoice"
)

func TestRenderHTMLBlocks(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	html, err := invoice.RenderHTML(doc, invoice.RenderOptions{})
	require.NoError(t, err)

	require.Contains(t, html, "width: 80mm")
	require.Contains(t, html, "KUNTALAGRO AGENCIES")
	require.Contains(t, html, "GSTIN: 07AABCU9603R1Z2")
	require.Contains(t, html, "1f2c7d94")
	require.Contains(t, html, "c1d2e5f6a7b8")
	require.Contains(t, html, "SHIP TO:")
	require.Contains(t, html, "Asha Verma")
	require.Contains(t, html, "Organic Vermicompost 5kg")
	require.Contains(t, html, "GST 5%: 10.00")
	require.Contains(t, html, "Subtotal (2 items):")
	require.Contains(t, html, "400.00")
	require.Contains(t, html, "454.00")
	require.Contains(t, html, "Four Hundred Fifty Four Rupees")
	require.Contains(t, html, "PAID")
	require.Contains(t, html, "Subject to Gurgaon jurisdiction.")
	require.Contains(t, html, "Thank you for shopping with us!")
	require.NotContains(t, html, "window.print")

	// block order is fixed top to bottom
	order := []string{"KUNTALAGRO", "INV#", "SHIP TO:", "Qty", "Subtotal", "Total GST", "Shipping:", "TOTAL:", "Amount:", "Payment:", "PAN:"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(html, marker)
		require.Greater(t, idx, last, "marker %q out of order", marker)
		last = idx
	}
}

func TestRenderHTMLNoAddress(t *testing.T) {
	t.Parallel()

	o := testOrder()
	o.Address = nil
	doc := invoice.Build(o, o.Totals(), testIssuer())

	html, err := invoice.RenderHTML(doc, invoice.RenderOptions{})
	require.NoError(t, err)
	require.NotContains(t, html, "SHIP TO:")
}

func TestRenderHTMLAutoPrint(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	html, err := invoice.RenderHTML(doc, invoice.RenderOptions{AutoPrint: true})
	require.NoError(t, err)
	require.Contains(t, html, "window.print()")
	require.Contains(t, html, "500")
}

func TestRenderHTMLEscapesMarkup(t *testing.T) {
	t.Parallel()

	o := testOrder()
	o.Items[0].Product.Name = "<script>alert(1)</script>"
	doc := invoice.Build(o, o.Totals(), testIssuer())

	html, err := invoice.RenderHTML(doc, invoice.RenderOptions{})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>alert(1)</script>")
}

func TestRenderHTMLDeterministic(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	a, err := invoice.RenderHTML(doc, invoice.RenderOptions{})
	require.NoError(t, err)
	b, err := invoice.RenderHTML(doc, invoice.RenderOptions{})
	require.NoError(t, err)
	require.Equal(t, a, b)
}
