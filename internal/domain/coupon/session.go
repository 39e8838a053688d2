package coupon

import "sync"

// Sessions holds each profile's active coupon for the duration of a checkout
// session. Coupons are never persisted; a restart or reload means the code has
// to be re-validated, which keeps stale or expired coupons from being served
// from storage.
type Sessions struct {
	mu     sync.Mutex
	active map[string]*Coupon
}

func NewSessions() *Sessions {
	return &Sessions{active: make(map[string]*Coupon)}
}

// Active returns the profile's current coupon, or nil.
func (s *Sessions) Active(profile string) *Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.active[profile]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// Set makes c the single active coupon for the profile, replacing any
// previous one. Coupons replace, they never stack.
func (s *Sessions) Set(profile string, c *Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.active[profile] = &cp
}

// Discard drops the profile's active coupon, if any.
func (s *Sessions) Discard(profile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, profile)
}
