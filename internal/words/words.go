// Package words converts currency amounts into their Indian-numbering-system
// words form (crore/lakh/thousand/hundred) for the printed invoice's
// amount-in-words line.
package words

import (
	"strings"

	"github.com/shopspring/decimal"
)

var units = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// InRupees renders a non-negative amount as "<integer> Rupees", appending
// " and <paise> Paise" only when the fractional part rounds to a nonzero
// paise value. A zero integer part renders as "Zero Rupees".
func InRupees(amount decimal.Decimal) string {
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if paise >= 100 {
		// Fractional part rounded up to a whole rupee.
		rupees++
		paise = 0
	}

	var b strings.Builder
	if rupees == 0 {
		b.WriteString("Zero")
	} else {
		b.WriteString(group(rupees))
	}
	b.WriteString(" Rupees")
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(group(paise))
		b.WriteString(" Paise")
	}
	return b.String()
}

// group converts a positive integer using Indian magnitude grouping.
func group(n int64) string {
	switch {
	case n < 20:
		return units[n]
	case n < 100:
		return join(tens[n/10], units[n%10])
	case n < 1000:
		return join(units[n/100]+" Hundred", group0(n%100))
	case n < 100000:
		return join(group(n/1000)+" Thousand", group0(n%1000))
	case n < 10000000:
		return join(group(n/100000)+" Lakh", group0(n%100000))
	default:
		return join(group(n/10000000)+" Crore", group0(n%10000000))
	}
}

// group0 is group with an empty result for zero remainders, so exact
// magnitudes ("One Lakh") emit no trailing words.
func group0(n int64) string {
	if n == 0 {
		return ""
	}
	return group(n)
}

func join(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}
