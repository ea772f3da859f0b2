package invoice_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/invoice"
	"github.com/greenmantra/backend-store/internal/order"
)

func floatPtr(f float64) *float64 { return &f }

func testIssuer() invoice.Issuer {
	return invoice.Issuer{
		Name:         "KUNTALAGRO AGENCIES",
		Tagline:      "Farm & Garden Solutions",
		GSTIN:        "07AABCU9603R1Z2",
		PAN:          "AABCU9603R",
		Phone:        "+91 8586845185",
		Jurisdiction: "Gurgaon",
	}
}

func testOrder() order.Order {
	return order.Order{
		ID:            "3f2b8c41-93ac-4f10-9d5e-08a51f2c7d94",
		CreatedAt:     time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC),
		TransactionID: "pay_9f83ab44c1d2e5f6a7b8",
		IsPaid:        true,
		PaymentType:   "upi",
		Address: &order.Address{
			Firstname: "Asha",
			Lastname:  "Verma",
			Phone:     "9811000000",
			Street:    "12 Mall Road",
			City:      "Gurgaon",
			State:     "Haryana",
			Zipcode:   "122001",
		},
		Items: []order.Item{
			{
				Quantity: 2,
				Product: order.ProductSnapshot{
					Name:          "Organic Vermicompost 5kg",
					Price:         120,
					OfferPrice:    floatPtr(100),
					GSTPercentage: floatPtr(5),
				},
			},
			{
				Quantity: 1,
				Product: order.ProductSnapshot{
					Name:            "Heavy Duty Garden Pruner with Ergonomic Grip",
					Price:           200,
					GSTPercentage:   floatPtr(12),
					ShippingCharges: floatPtr(20),
				},
			},
		},
	}
}

func TestBuildDocument(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	require.Equal(t, "KUNTALAGRO AGENCIES", doc.BusinessName)
	require.Equal(t, "1f2c7d94", doc.InvoiceNumber)
	require.Equal(t, "14/03/2026", doc.Date)
	require.Equal(t, "03:04 PM", doc.Time)
	require.Equal(t, "c1d2e5f6a7b8", doc.TransactionRef)
	require.Equal(t, "Invoice_1f2c7d94.pdf", doc.FileName("pdf"))

	require.NotNil(t, doc.Customer)
	require.Equal(t, "Asha Verma", doc.Customer.Name)
	require.Equal(t, "Gurgaon", doc.Customer.City)

	require.Len(t, doc.Items, 2)
	require.Equal(t, 1, doc.Items[0].Index)
	require.Equal(t, "Organic Vermicompost 5kg", doc.Items[0].Name)
	require.Equal(t, "100", doc.Items[0].UnitPrice.String())
	require.Equal(t, "10", doc.Items[0].TaxAmount.String())
	require.Equal(t, "210", doc.Items[0].Total.String())

	require.Equal(t, 2, doc.Totals.ItemCount)
	require.Equal(t, "400", doc.Totals.Subtotal.String())
	require.Equal(t, "34", doc.Totals.TotalTax.String())
	require.Equal(t, "20.00", doc.Totals.ShippingLabel)
	require.Equal(t, "454", doc.Totals.GrandTotal.String())
	require.Equal(t, "Four Hundred Fifty Four Rupees", doc.Totals.AmountInWords)

	require.Equal(t, "PAID", doc.Payment.Status)
	require.Equal(t, "UPI", doc.Payment.Method)

	require.Equal(t, testIssuer().Phone, doc.Footer.Phone)
	require.Contains(t, doc.Footer.Terms, "Subject to Gurgaon jurisdiction.")
}

func TestBuildLongNameTruncated(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	name := doc.Items[1].Name
	require.True(t, strings.HasSuffix(name, "..."), "long names get an ellipsis: %q", name)
	require.Equal(t, "Heavy Duty Garden Pruner ...", name)
}

func TestBuildTaxBreakdownSorted(t *testing.T) {
	t.Parallel()

	o := testOrder()
	doc := invoice.Build(o, o.Totals(), testIssuer())

	require.Len(t, doc.Totals.TaxBreakdown, 2)
	require.Equal(t, "5", doc.Totals.TaxBreakdown[0].RatePercent.String())
	require.Equal(t, "10", doc.Totals.TaxBreakdown[0].Amount.String())
	require.Equal(t, "12", doc.Totals.TaxBreakdown[1].RatePercent.String())
	require.Equal(t, "24", doc.Totals.TaxBreakdown[1].Amount.String())
}

func TestBuildFreeShippingAndPending(t *testing.T) {
	t.Parallel()

	o := testOrder()
	o.IsPaid = false
	o.PaymentType = ""
	o.TransactionID = ""
	o.Items = o.Items[:1]

	doc := invoice.Build(o, o.Totals(), testIssuer())

	require.Equal(t, "FREE", doc.Totals.ShippingLabel)
	require.Equal(t, "PENDING", doc.Payment.Status)
	require.Equal(t, "ONLINE", doc.Payment.Method)
	require.Equal(t, "N/A", doc.TransactionRef)
}

func TestBuildNoAddressOmitsCustomer(t *testing.T) {
	t.Parallel()

	o := testOrder()
	o.Address = nil

	doc := invoice.Build(o, o.Totals(), testIssuer())
	require.Nil(t, doc.Customer)
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	o := testOrder()
	a := invoice.Build(o, o.Totals(), testIssuer())
	b := invoice.Build(o, o.Totals(), testIssuer())
	require.Equal(t, a, b)
}
