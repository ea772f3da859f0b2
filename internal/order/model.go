// Package order holds the stored order model and its Postgres persistence.
// Orders carry product snapshots taken at purchase time; totals are always
// recomputed from the snapshot, never from the live catalog.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenmantra/backend-store/internal/money"
	"github.com/greenmantra/backend-store/internal/pricing"
)

// Address is the shipping address attached to an order. Every field is
// optional; historical orders may carry partial addresses.
type Address struct {
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Country   string `json:"country,omitempty"`
}

// ProductSnapshot is the product as recorded on the order. Newer catalog
// fields (gstPercentage, shippingCharges, offerPrice) are pointers so that
// snapshots predating them stay loadable and resolve to defaults.
type ProductSnapshot struct {
	ID              string   `json:"_id,omitempty"`
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	OfferPrice      *float64 `json:"offerPrice,omitempty"`
	GSTPercentage   *float64 `json:"gstPercentage,omitempty"`
	ShippingCharges *float64 `json:"shippingCharges,omitempty"`
	Image           []string `json:"image,omitempty"`
	Category        string   `json:"category,omitempty"`
	SubCategory     string   `json:"subCategory,omitempty"`
	WeightValue     *float64 `json:"weightValue,omitempty"`
	WeightUnit      string   `json:"weightUnit,omitempty"`
}

// Item is one product line of an order.
type Item struct {
	Quantity int             `json:"quantity"`
	Product  ProductSnapshot `json:"product"`
}

// Order is the stored order record.
type Order struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	TransactionID string    `json:"transactionId,omitempty"`
	IsPaid        bool      `json:"isPaid"`
	PaymentType   string    `json:"paymentType,omitempty"`
	Amount        float64   `json:"amount"`
	Address       *Address  `json:"address,omitempty"`
	Items         []Item    `json:"items"`
}

// UnitPrice resolves the price charged per unit: the offer price when the
// snapshot has one, else the list price.
func (p ProductSnapshot) UnitPrice() decimal.Decimal {
	if p.OfferPrice != nil && *p.OfferPrice > 0 {
		return money.FromFloat(*p.OfferPrice)
	}
	if p.Price < 0 {
		return decimal.Zero
	}
	return money.FromFloat(p.Price)
}

// LineItem converts the order item into pricing input, resolving snapshot
// gaps to the documented defaults.
func (it Item) LineItem() pricing.LineItem {
	line := pricing.LineItem{
		UnitPrice: it.Product.UnitPrice(),
		Quantity:  it.Quantity,
	}
	if it.Product.GSTPercentage != nil {
		rate := money.FromFloat(*it.Product.GSTPercentage)
		line.TaxRatePercent = &rate
	}
	if it.Product.ShippingCharges != nil && *it.Product.ShippingCharges > 0 {
		line.ShippingChargePerUnit = money.FromFloat(*it.Product.ShippingCharges)
	}
	return line
}

// LineItems converts all order items into pricing input.
func (o Order) LineItems() []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, it.LineItem())
	}
	return lines
}

// Totals recomputes the order's pricing breakdown from the stored snapshot.
func (o Order) Totals() pricing.OrderTotals {
	return pricing.ComputeOrder(o.LineItems())
}

// Reference returns the short order reference used on invoices and artifact
// names: the last eight characters of the identifier with separators
// removed.
func (o Order) Reference() string {
	return shortRef(o.ID, 8)
}

func shortRef(id string, n int) string {
	compact := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			continue
		}
		compact = append(compact, id[i])
	}
	if len(compact) <= n {
		return string(compact)
	}
	return string(compact[len(compact)-n:])
}
