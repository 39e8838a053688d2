package pricing

import (
	"github.com/shopspring/decimal"

	"carshop/internal/domain/cart"
	"carshop/internal/domain/coupon"
)

// Summary is the derived pricing view of a cart. It is recomputed from the
// cart and coupon on every read and never stored.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator derives monetary totals from cart lines and an optional coupon.
// It is a pure function of its inputs: no I/O, no internal state.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator builds a calculator with the given tax rate (e.g. 0.21 for
// 21%). The default deployment runs with a zero rate; the formula is the same
// either way.
func NewCalculator(taxRate decimal.Decimal) Calculator {
	return Calculator{taxRate: taxRate}
}

// Totals computes subtotal, tax, discount and grand total. Line totals are
// rounded to cents before summing so no binary floating-point error can
// accumulate across lines.
func (c Calculator) Totals(lines []cart.Line, cpn *coupon.Coupon) Summary {
	subtotal := decimal.Zero
	for _, ln := range lines {
		lineTotal := ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
	}

	tax := subtotal.Mul(c.taxRate).Round(2)
	discount := discountAmount(subtotal, cpn)

	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}

// discountAmount is clamped so a coupon can never discount more than the
// subtotal it applies to.
func discountAmount(subtotal decimal.Decimal, cpn *coupon.Coupon) decimal.Decimal {
	if cpn == nil {
		return decimal.Zero
	}

	switch cpn.DiscountType {
	case coupon.DiscountPercent:
		d := subtotal.Mul(cpn.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if d.GreaterThan(subtotal) {
			return subtotal
		}
		return d
	case coupon.DiscountFixed:
		if cpn.DiscountValue.GreaterThan(subtotal) {
			return subtotal
		}
		return cpn.DiscountValue
	default:
		return decimal.Zero
	}
}
