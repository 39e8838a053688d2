package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	coupons map[string]*Coupon
	err     error
	calls   []string
}

func (m *mockService) Validate(_ context.Context, code string) (*Coupon, error) {
	m.calls = append(m.calls, code)
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return c, nil
}

func save10() *Coupon {
	return &Coupon{
		Code:          "SAVE10",
		DiscountType:  DiscountPercent,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
	}
}

func TestApply_EmptyCodeNeverHitsService(t *testing.T) {
	svc := &mockService{}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "   ")

	require.ErrorIs(t, err, ErrEmptyCode)
	assert.Empty(t, svc.calls)
}

func TestApply_NormalizesCodeBeforeValidation(t *testing.T) {
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10()}}
	v := NewValidator(svc, NewSessions())

	c, err := v.Apply(context.Background(), "42", "  save10 ")

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	assert.Equal(t, []string{"SAVE10"}, svc.calls)
}

func TestApply_SetsActiveCoupon(t *testing.T) {
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10()}}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "SAVE10")
	require.NoError(t, err)

	active := v.Active("42")
	require.NotNil(t, active)
	assert.Equal(t, "SAVE10", active.Code)
}

func TestApply_ReplacesRatherThanStacks(t *testing.T) {
	flat5 := &Coupon{Code: "FLAT5", DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5)}
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10(), "FLAT5": flat5}}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "SAVE10")
	require.NoError(t, err)
	_, err = v.Apply(context.Background(), "42", "FLAT5")
	require.NoError(t, err)

	active := v.Active("42")
	require.NotNil(t, active)
	assert.Equal(t, "FLAT5", active.Code)
}

func TestApply_FailureKeepsPreviousCoupon(t *testing.T) {
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10()}}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "SAVE10")
	require.NoError(t, err)

	svc.err = ErrExpired
	_, err = v.Apply(context.Background(), "42", "DEAD")
	require.ErrorIs(t, err, ErrExpired)

	active := v.Active("42")
	require.NotNil(t, active)
	assert.Equal(t, "SAVE10", active.Code)
}

func TestDiscard(t *testing.T) {
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10()}}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "SAVE10")
	require.NoError(t, err)

	v.Discard("42")
	assert.Nil(t, v.Active("42"))
}

func TestSessions_IsolatedPerProfile(t *testing.T) {
	svc := &mockService{coupons: map[string]*Coupon{"SAVE10": save10()}}
	v := NewValidator(svc, NewSessions())

	_, err := v.Apply(context.Background(), "42", "SAVE10")
	require.NoError(t, err)

	assert.Nil(t, v.Active("7"))
}

func TestSessions_ActiveReturnsCopy(t *testing.T) {
	sessions := NewSessions()
	sessions.Set("42", save10())

	first := sessions.Active("42")
	first.Code = "TAMPERED"

	again := sessions.Active("42")
	assert.Equal(t, "SAVE10", again.Code)
}
