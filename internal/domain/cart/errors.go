package cart

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// StockError reports a mutation that would push a line past the last known
// stock for its product. The mutation it belongs to leaves the cart unchanged.
type StockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d unit(s) of %q available, requested %d", e.Available, e.Name, e.Requested)
}
