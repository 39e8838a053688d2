package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carshop/internal/domain/cart"
	"carshop/internal/domain/coupon"
	"carshop/internal/domain/pricing"
	"carshop/internal/upstream"
)

// Status tracks a single checkout attempt. Failed attempts never mutate the
// cart, so retrying is a plain re-invocation.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Catalog re-reads live stock for cart lines.
type Catalog interface {
	Product(ctx context.Context, id int64) (*upstream.ProductRecord, error)
}

// Orders submits the order snapshot.
type Orders interface {
	Create(ctx context.Context, sub *upstream.OrderSubmission, idempotencyKey string) (*upstream.OrderConfirmation, error)
}

// Profiles reads the account's shipping data.
type Profiles interface {
	ShippingProfile(ctx context.Context) (*upstream.ShippingProfile, error)
}

// Receipt is returned for a confirmed order.
type Receipt struct {
	OrderID int64           `json:"order_id"`
	Status  string          `json:"status"`
	Summary pricing.Summary `json:"summary"`
}

// Orchestrator runs a checkout attempt end to end: precondition checks, a
// fresh all-or-nothing stock validation, a single order submission, and cart
// reconciliation on confirmed success.
type Orchestrator struct {
	carts    *cart.Store
	coupons  *coupon.Validator
	pricer   pricing.Calculator
	catalog  Catalog
	orders   Orders
	profiles Profiles
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewOrchestrator(
	carts *cart.Store,
	coupons *coupon.Validator,
	pricer pricing.Calculator,
	catalog Catalog,
	orders Orders,
	profiles Profiles,
	logger *zap.SugaredLogger,
) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		coupons:  coupons,
		pricer:   pricer,
		catalog:  catalog,
		orders:   orders,
		profiles: profiles,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Run performs exactly one order submission per invocation. It never retries a
// network failure on its own; absence of a confirmation is a failure, never a
// success. Only a confirmed success clears the cart and discards the coupon.
func (o *Orchestrator) Run(ctx context.Context, profile string) (*Receipt, error) {
	status := StatusIdle

	lines, err := o.carts.Lines(ctx, profile)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if upstream.CredentialFrom(ctx) == nil {
		return nil, &PreconditionError{Requirement: "authentication"}
	}

	ship, err := o.profiles.ShippingProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipping profile: %w", err)
	}
	if err := o.validate.Struct(ship); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return nil, &PreconditionError{Requirement: "shipping profile", Fields: fields}
		}
		return nil, err
	}

	status = o.transition(profile, status, StatusValidating)
	if err := o.validateStock(ctx, lines); err != nil {
		o.transition(profile, status, StatusFailed)
		return nil, err
	}

	activeCoupon := o.coupons.Active(profile)
	summary := o.pricer.Totals(lines, activeCoupon)
	submission := buildSubmission(lines, activeCoupon, summary)

	status = o.transition(profile, status, StatusSubmitting)
	conf, err := o.orders.Create(ctx, submission, uuid.NewString())
	if err != nil {
		o.transition(profile, status, StatusFailed)
		return nil, err
	}

	o.transition(profile, status, StatusSucceeded)

	// The only path that touches the cart. A failed snapshot write here is
	// logged rather than returned: the order exists either way.
	if err := o.carts.Clear(ctx, profile); err != nil {
		o.logger.Errorw("order confirmed but cart clear failed", "profile", profile, "order_id", conf.ID, "error", err)
	}
	o.coupons.Discard(profile)

	return &Receipt{OrderID: conf.ID, Status: conf.Status, Summary: summary}, nil
}

// validateStock fans out one catalog read per line and waits for every result
// before deciding. No line's answer is acted on in isolation; if any line
// falls short the whole attempt fails with the full shortfall list.
func (o *Orchestrator) validateStock(ctx context.Context, lines []cart.Line) error {
	records := make([]*upstream.ProductRecord, len(lines))

	var g errgroup.Group
	for i, ln := range lines {
		g.Go(func() error {
			rec, err := o.catalog.Product(ctx, ln.ProductID)
			if err != nil {
				return fmt.Errorf("stock check for %q: %w", ln.Name, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var shortfalls []StockShortfall
	for i, ln := range lines {
		if rec := records[i]; ln.Quantity > rec.Stock {
			shortfalls = append(shortfalls, StockShortfall{
				ProductID: ln.ProductID,
				Name:      ln.Name,
				Requested: ln.Quantity,
				Available: rec.Stock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &StockShortfallError{Shortfalls: shortfalls}
	}
	return nil
}

func buildSubmission(lines []cart.Line, cpn *coupon.Coupon, summary pricing.Summary) *upstream.OrderSubmission {
	items := make([]upstream.OrderItem, len(lines))
	for i, ln := range lines {
		items[i] = upstream.OrderItem{
			ProductID: ln.ProductID,
			Name:      ln.Name,
			SKU:       ln.SKU,
			Price:     ln.UnitPrice,
			Quantity:  ln.Quantity,
			Brand:     ln.Brand,
			Model:     ln.Model,
			Year:      ln.Year,
		}
	}

	sub := &upstream.OrderSubmission{
		Items:          items,
		DiscountAmount: summary.Discount,
	}
	if cpn != nil {
		code := cpn.Code
		sub.CouponCode = &code
	}
	return sub
}

func (o *Orchestrator) transition(profile string, from, to Status) Status {
	o.logger.Infow("checkout transition", "profile", profile, "from", from, "to", to)
	return to
}
