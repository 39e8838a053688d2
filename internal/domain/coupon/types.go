package coupon

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Coupon holds the discount parameters returned by the coupon service for a
// validated code. Codes are stored uppercase.
type Coupon struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidTo       time.Time       `json:"valid_to"`
	UsageLimit    *int            `json:"usage_limit,omitempty"`
}

var (
	ErrEmptyCode         = errors.New("coupon code is empty")
	ErrInvalidCoupon     = errors.New("invalid coupon code")
	ErrExpired           = errors.New("coupon is outside its validity window")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)
