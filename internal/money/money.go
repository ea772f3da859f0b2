// Package money provides fixed-point currency helpers shared by the pricing
// and invoice packages. Amounts are shopspring decimals; rounding happens at
// the paise boundary with half-up semantics.
package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount to two decimal places, half-up at the paise
// boundary. Idempotent: Round2(Round2(x)) == Round2(x).
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Format2 renders an amount with exactly two fractional digits. Decimal's
// fixed formatting never produces scientific notation.
func Format2(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FromFloat converts a float64 currency value coming from a stored order
// snapshot into a decimal amount.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Zero is the zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}
