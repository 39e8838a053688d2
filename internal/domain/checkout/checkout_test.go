package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carshop/internal/domain/cart"
	"carshop/internal/domain/coupon"
	"carshop/internal/domain/pricing"
	"carshop/internal/upstream"
)

const testProfile = "42"

type mockCatalog struct {
	mu      sync.Mutex
	records map[int64]*upstream.ProductRecord
	err     error
	calls   int
}

func (m *mockCatalog) Product(_ context.Context, id int64) (*upstream.ProductRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, upstream.ErrProductNotFound
	}
	return rec, nil
}

type mockOrders struct {
	conf        *upstream.OrderConfirmation
	err         error
	submissions []*upstream.OrderSubmission
	keys        []string
}

func (m *mockOrders) Create(_ context.Context, sub *upstream.OrderSubmission, key string) (*upstream.OrderConfirmation, error) {
	m.submissions = append(m.submissions, sub)
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return m.conf, nil
}

type mockProfiles struct {
	profile *upstream.ShippingProfile
	err     error
}

func (m *mockProfiles) ShippingProfile(context.Context) (*upstream.ShippingProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

type stubCouponService struct {
	coupon *coupon.Coupon
}

func (s *stubCouponService) Validate(context.Context, string) (*coupon.Coupon, error) {
	return s.coupon, nil
}

func completeProfile() *upstream.ShippingProfile {
	return &upstream.ShippingProfile{
		Phone:        "+54 11 5555-0147",
		NationalID:   "30123456",
		AddressLine1: "Av. Rivadavia 1234",
		City:         "Buenos Aires",
		Province:     "CABA",
		PostalCode:   "C1033",
	}
}

func record(id int64, name string, price string, stock int) *upstream.ProductRecord {
	return &upstream.ProductRecord{
		ID:    id,
		Name:  name,
		SKU:   name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

type fixture struct {
	orch     *Orchestrator
	carts    *cart.Store
	coupons  *coupon.Validator
	catalog  *mockCatalog
	orders   *mockOrders
	profiles *mockProfiles
}

func newFixture(cpn *coupon.Coupon) *fixture {
	carts := cart.NewStore(cart.NewMemorySnapshots())
	coupons := coupon.NewValidator(&stubCouponService{coupon: cpn}, coupon.NewSessions())
	catalog := &mockCatalog{records: map[int64]*upstream.ProductRecord{}}
	orders := &mockOrders{conf: &upstream.OrderConfirmation{ID: 1001, Status: "confirmed", Total: decimal.NewFromInt(90)}}
	profiles := &mockProfiles{profile: completeProfile()}

	orch := NewOrchestrator(
		carts,
		coupons,
		pricing.NewCalculator(decimal.Zero),
		catalog,
		orders,
		profiles,
		zap.NewNop().Sugar(),
	)
	return &fixture{orch: orch, carts: carts, coupons: coupons, catalog: catalog, orders: orders, profiles: profiles}
}

func authedCtx() context.Context {
	return upstream.WithCredential(context.Background(), &upstream.Credential{Access: "tok", Refresh: "ref"})
}

func (f *fixture) addToCart(t *testing.T, rec *upstream.ProductRecord, qty int) {
	t.Helper()
	f.catalog.mu.Lock()
	f.catalog.records[rec.ID] = rec
	f.catalog.mu.Unlock()
	require.NoError(t, f.carts.AddItem(context.Background(), testProfile, rec.CartProduct(), qty))
}

func TestRun_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	_, err := f.orch.Run(authedCtx(), testProfile)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orders.submissions)
}

func TestRun_RequiresCredential(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)

	_, err := f.orch.Run(context.Background(), testProfile)

	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "authentication", pre.Requirement)
	assert.Empty(t, f.orders.submissions)
}

func TestRun_RequiresCompleteShippingProfile(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.profiles.profile = &upstream.ShippingProfile{Phone: "+54 11 5555-0147", City: "Buenos Aires"}

	_, err := f.orch.Run(authedCtx(), testProfile)

	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "shipping profile", pre.Requirement)
	assert.Contains(t, pre.Fields, "NationalID")
	assert.Contains(t, pre.Fields, "AddressLine1")
	assert.Contains(t, pre.Fields, "Province")
	assert.Contains(t, pre.Fields, "PostalCode")
	assert.Empty(t, f.orders.submissions)
}

func TestRun_StockRaceAbortsWholeAttempt(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.addToCart(t, record(2, "Brake Rotor", "80", 3), 3)

	// Concurrent buyers drained both products before checkout re-validates.
	f.catalog.records[1] = record(1, "Brake Pads", "50", 1)
	f.catalog.records[2] = record(2, "Brake Rotor", "80", 0)

	_, err := f.orch.Run(authedCtx(), testProfile)

	var short *StockShortfallError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortfalls, 2)
	assert.Empty(t, f.orders.submissions, "nothing may be submitted on a shortfall")

	lines, err := f.carts.Lines(context.Background(), testProfile)
	require.NoError(t, err)
	assert.Len(t, lines, 2, "a failed attempt must not touch the cart")
}

func TestRun_CatalogFailureAbortsBeforeSubmission(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.catalog.err = errors.New("catalog unreachable")

	_, err := f.orch.Run(authedCtx(), testProfile)

	require.Error(t, err)
	assert.Empty(t, f.orders.submissions)
}

func TestRun_SuccessSubmitsSnapshotAndClearsCart(t *testing.T) {
	cpn := &coupon.Coupon{Code: "SAVE10", DiscountType: coupon.DiscountPercent, DiscountValue: decimal.NewFromInt(10)}
	f := newFixture(cpn)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	_, err := f.coupons.Apply(context.Background(), testProfile, "SAVE10")
	require.NoError(t, err)

	receipt, err := f.orch.Run(authedCtx(), testProfile)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), receipt.OrderID)
	assert.Equal(t, "confirmed", receipt.Status)
	assert.True(t, receipt.Summary.Total.Equal(decimal.NewFromInt(90)), "got %s", receipt.Summary.Total)

	require.Len(t, f.orders.submissions, 1)
	sub := f.orders.submissions[0]
	require.Len(t, sub.Items, 1)
	assert.Equal(t, int64(1), sub.Items[0].ProductID)
	assert.Equal(t, 2, sub.Items[0].Quantity)
	require.NotNil(t, sub.CouponCode)
	assert.Equal(t, "SAVE10", *sub.CouponCode)
	assert.True(t, sub.DiscountAmount.Equal(decimal.NewFromInt(10)))

	require.Len(t, f.orders.keys, 1)
	assert.NotEmpty(t, f.orders.keys[0])

	lines, err := f.carts.Lines(context.Background(), testProfile)
	require.NoError(t, err)
	assert.Empty(t, lines, "confirmed success clears the cart")
	assert.Nil(t, f.coupons.Active(testProfile), "confirmed success discards the coupon")
}

func TestRun_RejectionLeavesCartAndCoupon(t *testing.T) {
	cpn := &coupon.Coupon{Code: "SAVE10", DiscountType: coupon.DiscountPercent, DiscountValue: decimal.NewFromInt(10)}
	f := newFixture(cpn)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	_, err := f.coupons.Apply(context.Background(), testProfile, "SAVE10")
	require.NoError(t, err)

	f.orders.err = &upstream.RejectedError{StatusCode: 409, ItemErrors: []string{"Brake Pads: only 1 left"}}

	_, err = f.orch.Run(authedCtx(), testProfile)

	var rejected *upstream.RejectedError
	require.ErrorAs(t, err, &rejected)

	lines, lerr := f.carts.Lines(context.Background(), testProfile)
	require.NoError(t, lerr)
	assert.Len(t, lines, 1, "a rejected order must not touch the cart")
	assert.NotNil(t, f.coupons.Active(testProfile))
}

func TestRun_NetworkFailureIsNeverASuccess(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.orders.err = errors.New("connection reset by peer")

	_, err := f.orch.Run(authedCtx(), testProfile)

	require.Error(t, err)
	assert.Len(t, f.orders.submissions, 1, "exactly one submission per attempt, no client-side retry")

	lines, lerr := f.carts.Lines(context.Background(), testProfile)
	require.NoError(t, lerr)
	assert.Len(t, lines, 1)
}

func TestRun_EveryAttemptUsesFreshIdempotencyKey(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.orders.err = errors.New("connection reset by peer")

	_, err := f.orch.Run(authedCtx(), testProfile)
	require.Error(t, err)
	_, err = f.orch.Run(authedCtx(), testProfile)
	require.Error(t, err)

	require.Len(t, f.orders.keys, 2)
	assert.NotEqual(t, f.orders.keys[0], f.orders.keys[1])
}

func TestRun_ChecksEveryLineOnce(t *testing.T) {
	f := newFixture(nil)
	f.addToCart(t, record(1, "Brake Pads", "50", 5), 2)
	f.addToCart(t, record(2, "Brake Rotor", "80", 3), 1)
	f.addToCart(t, record(3, "Oil Filter", "12.5", 10), 4)

	_, err := f.orch.Run(authedCtx(), testProfile)
	require.NoError(t, err)

	assert.Equal(t, 3, f.catalog.calls)
}
