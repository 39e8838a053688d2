package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carshop/internal/domain/cart"
	"carshop/internal/domain/coupon"
)

func line(price string, qty int) cart.Line {
	return cart.Line{
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func percentCoupon(value string) *coupon.Coupon {
	return &coupon.Coupon{
		Code:          "SAVE",
		DiscountType:  coupon.DiscountPercent,
		DiscountValue: decimal.RequireFromString(value),
	}
}

func fixedCoupon(value string) *coupon.Coupon {
	return &coupon.Coupon{
		Code:          "FLAT",
		DiscountType:  coupon.DiscountFixed,
		DiscountValue: decimal.RequireFromString(value),
	}
}

func TestTotals_EmptyCartIsAllZero(t *testing.T) {
	calc := NewCalculator(decimal.RequireFromString("0.21"))

	s := calc.Totals(nil, nil)

	assert.True(t, s.Subtotal.IsZero())
	assert.True(t, s.Tax.IsZero())
	assert.True(t, s.Discount.IsZero())
	assert.True(t, s.Total.IsZero())
}

func TestTotals_SumsLineTotals(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	s := calc.Totals([]cart.Line{line("50", 2), line("19.99", 3)}, nil)

	assert.True(t, s.Subtotal.Equal(decimal.RequireFromString("159.97")), "got %s", s.Subtotal)
	assert.True(t, s.Total.Equal(s.Subtotal))
}

func TestTotals_PercentCoupon(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	s := calc.Totals([]cart.Line{line("50", 2)}, percentCoupon("10"))

	assert.True(t, s.Discount.Equal(decimal.RequireFromString("10")), "got %s", s.Discount)
	assert.True(t, s.Total.Equal(decimal.RequireFromString("90")), "got %s", s.Total)
}

func TestTotals_PercentCouponNeverExceedsSubtotal(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	s := calc.Totals([]cart.Line{line("50", 2)}, percentCoupon("150"))

	assert.True(t, s.Discount.Equal(decimal.RequireFromString("100")))
	assert.True(t, s.Total.IsZero())
}

func TestTotals_FixedCouponCappedAtSubtotal(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	s := calc.Totals([]cart.Line{line("30", 1)}, fixedCoupon("45"))

	assert.True(t, s.Discount.Equal(decimal.RequireFromString("30")))
	assert.True(t, s.Total.IsZero())
}

func TestTotals_TaxAppliesBeforeDiscount(t *testing.T) {
	calc := NewCalculator(decimal.RequireFromString("0.21"))

	s := calc.Totals([]cart.Line{line("100", 1)}, fixedCoupon("100"))

	// 100 + 21 tax - 100 discount = 21, never below zero.
	assert.True(t, s.Tax.Equal(decimal.RequireFromString("21")))
	assert.True(t, s.Total.Equal(decimal.RequireFromString("21")), "got %s", s.Total)
}

func TestTotals_RoundsEachLineToCents(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	// 0.125 * 1 rounds to 0.13 per line; two independent lines sum to 0.26,
	// not round(0.25) of the unrounded sum.
	s := calc.Totals([]cart.Line{line("0.125", 1), line("0.125", 1)}, nil)

	assert.True(t, s.Subtotal.Equal(decimal.RequireFromString("0.26")), "got %s", s.Subtotal)
}

func TestTotals_IsPureAndRepeatable(t *testing.T) {
	calc := NewCalculator(decimal.RequireFromString("0.21"))
	lines := []cart.Line{line("33.33", 3), line("7.5", 2)}
	cpn := percentCoupon("12.5")

	first := calc.Totals(lines, cpn)
	second := calc.Totals(lines, cpn)

	require.True(t, first.Subtotal.Equal(second.Subtotal))
	require.True(t, first.Tax.Equal(second.Tax))
	require.True(t, first.Discount.Equal(second.Discount))
	require.True(t, first.Total.Equal(second.Total))
}

func TestTotals_UnknownDiscountTypeIgnored(t *testing.T) {
	calc := NewCalculator(decimal.Zero)
	cpn := &coupon.Coupon{Code: "ODD", DiscountType: "bogo", DiscountValue: decimal.NewFromInt(10)}

	s := calc.Totals([]cart.Line{line("50", 1)}, cpn)

	assert.True(t, s.Discount.IsZero())
	assert.True(t, s.Total.Equal(decimal.NewFromInt(50)))
}
