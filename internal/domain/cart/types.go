package cart

import "github.com/shopspring/decimal"

// Product is the catalog record a cart mutation is based on. It carries the
// live stock counter the mutation is checked against.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Brand    *string         `json:"brand,omitempty"`
	Model    *string         `json:"model,omitempty"`
	Year     *int            `json:"year,omitempty"`
	ImageURL *string         `json:"image,omitempty"`
}

// Line is one cart entry: a snapshot of the product at the time it entered the
// cart plus the requested quantity. StockSnapshot is the most recently seen
// stock for the product; quantity must never exceed it.
type Line struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockSnapshot int             `json:"stock_snapshot"`
	Brand         *string         `json:"brand,omitempty"`
	Model         *string         `json:"model,omitempty"`
	Year          *int            `json:"year,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
}

func newLine(p Product, qty int) Line {
	return Line{
		ProductID:     p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		UnitPrice:     p.Price,
		Quantity:      qty,
		StockSnapshot: p.Stock,
		Brand:         p.Brand,
		Model:         p.Model,
		Year:          p.Year,
		ImageURL:      p.ImageURL,
	}
}
