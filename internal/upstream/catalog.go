package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"carshop/internal/domain/cart"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogClient reads product records from the catalog service. The catalog is
// public; these calls carry no credential.
type CatalogClient struct {
	t *transport
}

// ProductRecord is the catalog's view of a product, including its live stock
// counter.
type ProductRecord struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
	Brand *string         `json:"brand,omitempty"`
	Model *string         `json:"model,omitempty"`
	Year  *int            `json:"year,omitempty"`
	Image *string         `json:"image,omitempty"`
}

// CartProduct converts the record into the cart domain's product snapshot.
func (p *ProductRecord) CartProduct() cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.SKU,
		Price:    p.Price,
		Stock:    p.Stock,
		Brand:    p.Brand,
		Model:    p.Model,
		Year:     p.Year,
		ImageURL: p.Image,
	}
}

func (c *CatalogClient) Product(ctx context.Context, id int64) (*ProductRecord, error) {
	status, body, err := c.t.roundTrip(ctx, http.MethodGet, fmt.Sprintf("/products/%d/", id), nil, nil, false)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrProductNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("fetch product %d: status %d", id, status)
	}

	var rec ProductRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("fetch product %d: decode: %w", id, err)
	}
	return &rec, nil
}
