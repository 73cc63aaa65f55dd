// Package pricing derives order totals from cart contents and active discount
// sources. Calculation is a pure function of its inputs; all arithmetic uses
// decimal values and rounding happens only at the presentation boundary.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/internal/domain/cart"
)

var (
	// TaxRate is applied to the discounted subtotal.
	TaxRate = decimal.RequireFromString("0.18")

	// FirstOrderDiscountRate is the automatic incentive for customers with no
	// prior order history. It expires silently once any order exists.
	FirstOrderDiscountRate = decimal.RequireFromString("0.10")

	one = decimal.NewFromInt(1)
)

// Quote holds the derived pricing of a cart. All values carry full precision;
// call Rounded for display amounts.
type Quote struct {
	Subtotal     decimal.Decimal
	DiscountRate decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Rounded returns a copy of the quote with every amount rounded half-even to
// two decimal places for presentation.
func (q Quote) Rounded() Quote {
	return Quote{
		Subtotal:     q.Subtotal.RoundBank(2),
		DiscountRate: q.DiscountRate,
		Discount:     q.Discount.RoundBank(2),
		Tax:          q.Tax.RoundBank(2),
		Total:        q.Total.RoundBank(2),
	}
}

// Calculate derives the quote for the given cart lines.
//
// priorOrders is the customer's historical order count; a zero count grants
// the first-order discount. voucherRate is the active voucher's discount rate
// (zero when none). The combined discount rate is clamped to [0, 1] so the
// discount can never exceed the subtotal.
func Calculate(lines []cart.Line, priorOrders int, voucherRate decimal.Decimal) Quote {
	subtotal := Subtotal(lines)

	rate := AutoDiscountRate(priorOrders).Add(voucherRate)
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	if rate.GreaterThan(one) {
		rate = one
	}

	discount := subtotal.Mul(rate)
	tax := subtotal.Sub(discount).Mul(TaxRate)

	return Quote{
		Subtotal:     subtotal,
		DiscountRate: rate,
		Discount:     discount,
		Tax:          tax,
		Total:        subtotal.Sub(discount).Add(tax),
	}
}

// Subtotal returns the sum of unit price times quantity across all lines.
func Subtotal(lines []cart.Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// AutoDiscountRate returns the first-order incentive rate: 0.10 for a customer
// with no prior orders, zero otherwise.
func AutoDiscountRate(priorOrders int) decimal.Decimal {
	if priorOrders == 0 {
		return FirstOrderDiscountRate
	}
	return decimal.Zero
}
