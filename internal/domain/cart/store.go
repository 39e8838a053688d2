package cart

import (
	"context"
	"fmt"
	"sync"
)

// Fixed storage key prefix for persisted cart snapshots. One snapshot per
// browser profile.
const storageKeyPrefix = "carshop_cart:"

// Snapshots is the durable storage boundary for carts. Save writes the full
// snapshot for a key; Load returns nil lines when no snapshot exists yet.
type Snapshots interface {
	Load(ctx context.Context, key string) ([]Line, error)
	Save(ctx context.Context, key string, lines []Line) error
}

// Store owns the open carts. Each profile's cart is an ordered list of lines,
// unique by product. Every successful mutation persists the full snapshot
// before returning, so callers never observe a mutated-but-unpersisted cart.
// Mutations are serialized under one mutex; concurrent writers from other
// instances are last-write-wins at the storage layer.
type Store struct {
	snapshots Snapshots

	mu    sync.Mutex
	carts map[string][]Line
}

func NewStore(snapshots Snapshots) *Store {
	return &Store{
		snapshots: snapshots,
		carts:     make(map[string][]Line),
	}
}

// Lines returns a copy of the profile's cart in insertion order.
func (s *Store) Lines(ctx context.Context, profile string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.linesLocked(ctx, profile)
	if err != nil {
		return nil, err
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out, nil
}

// AddItem inserts a new line for the product or merges qty into an existing
// one. The merged quantity must not exceed the product's live stock; a
// violation rejects the whole mutation and leaves the existing line untouched.
func (s *Store) AddItem(ctx context.Context, profile string, p Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if p.Stock <= 0 {
		return ErrOutOfStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.linesLocked(ctx, profile)
	if err != nil {
		return err
	}

	next := make([]Line, len(lines))
	copy(next, lines)

	if i := indexOf(next, p.ID); i >= 0 {
		merged := next[i].Quantity + qty
		if merged > p.Stock {
			return &StockError{ProductID: p.ID, Name: p.Name, Requested: merged, Available: p.Stock}
		}
		next[i].Quantity = merged
		next[i].StockSnapshot = p.Stock
		return s.persistLocked(ctx, profile, next)
	}

	if qty > p.Stock {
		return &StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
	}
	next = append(next, newLine(p, qty))
	return s.persistLocked(ctx, profile, next)
}

// UpdateQuantity sets the quantity for an existing line. A quantity of zero or
// less removes the line. Requests beyond the line's last known stock are
// rejected, keeping the prior quantity.
func (s *Store) UpdateQuantity(ctx context.Context, profile string, productID int64, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, profile, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.linesLocked(ctx, profile)
	if err != nil {
		return err
	}

	i := indexOf(lines, productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty > lines[i].StockSnapshot {
		return &StockError{
			ProductID: productID,
			Name:      lines[i].Name,
			Requested: qty,
			Available: lines[i].StockSnapshot,
		}
	}

	next := make([]Line, len(lines))
	copy(next, lines)
	next[i].Quantity = qty
	return s.persistLocked(ctx, profile, next)
}

// RemoveItem drops the product's line. Removing a line that does not exist is
// a no-op.
func (s *Store) RemoveItem(ctx context.Context, profile string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.linesLocked(ctx, profile)
	if err != nil {
		return err
	}

	if indexOf(lines, productID) < 0 {
		return nil
	}

	next := make([]Line, 0, len(lines)-1)
	for _, ln := range lines {
		if ln.ProductID != productID {
			next = append(next, ln)
		}
	}
	return s.persistLocked(ctx, profile, next)
}

// Clear empties the profile's cart and persists the empty snapshot.
func (s *Store) Clear(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.linesLocked(ctx, profile); err != nil {
		return err
	}
	return s.persistLocked(ctx, profile, []Line{})
}

// linesLocked returns the profile's cart, loading the stored snapshot on first
// access. Callers must hold s.mu.
func (s *Store) linesLocked(ctx context.Context, profile string) ([]Line, error) {
	if lines, ok := s.carts[profile]; ok {
		return lines, nil
	}
	lines, err := s.snapshots.Load(ctx, storageKeyPrefix+profile)
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	if lines == nil {
		lines = []Line{}
	}
	s.carts[profile] = lines
	return lines, nil
}

// persistLocked writes the snapshot and only then commits the in-memory state,
// so a failed write leaves the cart exactly as it was.
func (s *Store) persistLocked(ctx context.Context, profile string, lines []Line) error {
	if err := s.snapshots.Save(ctx, storageKeyPrefix+profile, lines); err != nil {
		return fmt.Errorf("persist cart snapshot: %w", err)
	}
	s.carts[profile] = lines
	return nil
}

func indexOf(lines []Line, productID int64) int {
	for i, ln := range lines {
		if ln.ProductID == productID {
			return i
		}
	}
	return -1
}
