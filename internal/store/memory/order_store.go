// Package memory implements the domain store and bus interfaces in process
// memory. The memory OrderStore is the desk's source of truth: the simulator
// has no durability requirement, and an injectable container keeps tests
// isolated and allows multiple desks side by side.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quantfloor/deskd/internal/domain"
)

// OrderStore holds every order behind a single mutex. Each exported method
// is atomic: readers never observe a partially applied transition.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	ids    []string // insertion order, oldest first
	now    func() time.Time
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
		now:    time.Now,
	}
}

// WithClock overrides the transition timestamp source, for tests.
func (s *OrderStore) WithClock(now func() time.Time) *OrderStore {
	s.now = now
	return s
}

// Create inserts a new order.
func (s *OrderStore) Create(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return domain.ErrAlreadyExists
	}
	o := order.Clone()
	s.orders[order.ID] = &o
	s.ids = append(s.ids, order.ID)
	return nil
}

// Get returns a copy of the order with the given ID.
func (s *OrderStore) Get(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o.Clone(), nil
}

// List returns all orders, newest first (the blotter ordering).
func (s *OrderStore) List(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.ids))
	for i := len(s.ids) - 1; i >= 0; i-- {
		if o, ok := s.orders[s.ids[i]]; ok {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

// ApplyTransition advances the order under the store lock, stamping the
// transition with the store clock. A missing order is a silent no-op: the
// submission pipeline must not fail because the user deleted the order
// mid-flight.
func (s *OrderStore) ApplyTransition(_ context.Context, id string, to domain.OrderState, note string, steps []domain.ValidationStep, rejectionReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	o.ApplyTransition(to, s.now().UTC(), note, steps, rejectionReason)
	return nil
}

// Delete removes an order. Orders are destroyed only by explicit user
// action; there is no automatic expiry.
func (s *OrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.orders, id)
	for i, oid := range s.ids {
		if oid == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every order.
func (s *OrderStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[string]*domain.Order)
	s.ids = nil
	return nil
}

// CountByState returns the number of orders in each lifecycle state.
func (s *OrderStore) CountByState(_ context.Context) (map[domain.OrderState]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.OrderState]int)
	for _, o := range s.orders {
		counts[o.State]++
	}
	return counts, nil
}

// Compile-time interface check.
var _ domain.OrderStore = (*OrderStore)(nil)
