package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"carshop/internal/domain/coupon"
)

// CouponClient validates discount codes against the coupon service.
type CouponClient struct {
	t *transport
}

// Validate round-trips the code and returns its discount parameters.
// Server-reported failure reasons map onto the coupon package's sentinel
// errors.
func (c *CouponClient) Validate(ctx context.Context, code string) (*coupon.Coupon, error) {
	status, body, err := c.t.roundTrip(ctx, http.MethodPost, "/coupons/validate/", map[string]string{"code": code}, nil, true)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		reason := decodeError(body).Error
		switch strings.ToLower(strings.TrimSpace(reason)) {
		case "expired":
			return nil, coupon.ErrExpired
		case "usage_limit_reached":
			return nil, coupon.ErrUsageLimitReached
		default:
			return nil, coupon.ErrInvalidCoupon
		}
	}

	var out coupon.Coupon
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("validate coupon: decode: %w", err)
	}
	out.Code = strings.ToUpper(out.Code)
	return &out, nil
}
