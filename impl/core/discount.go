package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// discountPercent returns the MYOB DiscountPercent for a line. A percent wins; an amount
// is converted against qty*unitPrice, rounded to 2 places and capped at 100.
// The bool is false when an amount was given but could not be converted.
func discountPercent(qty, unitPrice, percent, amount float64) (float64, bool) {
	if percent != 0 {
		return percent, true
	}
	if amount == 0 {
		return 0, true
	}

	gross := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(unitPrice))
	if gross.IsZero() {
		return 0, false
	}

	p := decimal.NewFromFloat(amount).Div(gross).Mul(hundred).Round(2)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	f, _ := p.Float64()
	return f, true
}
