package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// PreconditionError names the entry condition a checkout attempt failed before
// any validation or submission happened. The attempt never left idle.
type PreconditionError struct {
	Requirement string
	Fields      []string
}

func (e *PreconditionError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("checkout precondition %q not met: missing %s", e.Requirement, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("checkout precondition %q not met", e.Requirement)
}

// StockShortfall is one cart line whose requested quantity exceeds the live
// stock found during validation.
type StockShortfall struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockShortfallError aborts the whole attempt: if any line falls short, zero
// lines are submitted. It enumerates every offending line so the user can
// correct all of them at once.
type StockShortfallError struct {
	Shortfalls []StockShortfall
}

func (e *StockShortfallError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%q: requested %d, available %d", s.Name, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}
