package coupon

import (
	"context"
	"strings"
)

// Service round-trips a code to the coupon service. Implementations map
// server-reported reasons onto ErrInvalidCoupon, ErrExpired and
// ErrUsageLimitReached.
type Service interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// Validator normalizes codes, validates them against the coupon service and
// tracks the resulting active coupon per session.
type Validator struct {
	svc      Service
	sessions *Sessions
}

func NewValidator(svc Service, sessions *Sessions) *Validator {
	return &Validator{svc: svc, sessions: sessions}
}

// Apply validates code and makes it the profile's active coupon. A failed
// validation leaves any previously active coupon untouched.
func (v *Validator) Apply(ctx context.Context, profile, code string) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrEmptyCode
	}

	c, err := v.svc.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	v.sessions.Set(profile, c)
	return c, nil
}

// Active returns the profile's current coupon, or nil.
func (v *Validator) Active(profile string) *Coupon {
	return v.sessions.Active(profile)
}

// Discard drops the profile's active coupon.
func (v *Validator) Discard(profile string) {
	v.sessions.Discard(profile)
}
