package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// OrderClient submits orders to the order service.
type OrderClient struct {
	t *transport
}

// OrderItem snapshots one cart line for submission. Prices travel with the
// order so the server can detect drift against its own records.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	Brand     *string         `json:"brand,omitempty"`
	Model     *string         `json:"model,omitempty"`
	Year      *int            `json:"year,omitempty"`
}

// OrderSubmission is sent exactly once per checkout attempt.
type OrderSubmission struct {
	Items          []OrderItem     `json:"items"`
	CouponCode     *string         `json:"coupon_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// OrderConfirmation is the order service's success response.
type OrderConfirmation struct {
	ID     int64           `json:"id"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

// RejectedError is a non-success response from the order service. ItemErrors
// carries line-level messages, e.g. a stock shortage found by the server's own
// re-check after a concurrent buyer got there first.
type RejectedError struct {
	StatusCode int
	Reason     string
	ItemErrors []string
}

func (e *RejectedError) Error() string {
	if len(e.ItemErrors) > 0 {
		return fmt.Sprintf("order rejected (status %d): %s", e.StatusCode, e.ItemErrors[0])
	}
	if e.Reason != "" {
		return fmt.Sprintf("order rejected (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("order rejected (status %d)", e.StatusCode)
}

// Create submits the order once. idempotencyKey guards the server against a
// duplicate arriving through a network retry outside our control; the client
// itself never resends.
func (c *OrderClient) Create(ctx context.Context, sub *OrderSubmission, idempotencyKey string) (*OrderConfirmation, error) {
	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	status, body, err := c.t.roundTrip(ctx, http.MethodPost, "/orders/", sub, headers, true)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		eb := decodeError(body)
		return nil, &RejectedError{StatusCode: status, Reason: eb.Error, ItemErrors: eb.Items}
	}

	var conf OrderConfirmation
	if err := json.Unmarshal(body, &conf); err != nil {
		return nil, fmt.Errorf("create order: decode: %w", err)
	}
	return &conf, nil
}
