// Package memory provides an in-process store.Store for tests, demos and
// the CLI. Every load and save copies, so callers never share state with
// the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	bistrostore "github.com/xraph/bistro/store"
)

// compile-time interface check
var _ bistrostore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Order snapshots by tenant
	orders map[string][]*order.Order

	// Batch snapshots by tenant, in ledger order
	batches map[string][]*inventory.Batch

	saves int
}

func New() *Store {
	return &Store{
		orders:  make(map[string][]*order.Order),
		batches: make(map[string][]*inventory.Batch),
	}
}

// Order Store implementation
func (s *Store) LoadOrders(_ context.Context, tenantID string) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.orders[tenantID]
	out := make([]*order.Order, len(src))
	for i, o := range src {
		out[i] = o.Clone()
	}
	return out, nil
}

func (s *Store) SaveOrders(_ context.Context, tenantID string, orders []*order.Order) error {
	cp := make([]*order.Order, len(orders))
	for i, o := range orders {
		if o.TenantID != tenantID {
			return fmt.Errorf("bistro/memory: save order %s: %w", o.ID, order.ErrTenantMismatch)
		}
		cp[i] = o.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[tenantID] = cp
	s.saves++
	return nil
}

// Inventory Store implementation
func (s *Store) LoadInventory(_ context.Context, tenantID string) ([]*inventory.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.batches[tenantID]
	out := make([]*inventory.Batch, len(src))
	for i, b := range src {
		c := *b
		out[i] = &c
	}
	return out, nil
}

func (s *Store) SaveInventory(_ context.Context, tenantID string, batches []*inventory.Batch) error {
	cp := make([]*inventory.Batch, len(batches))
	for i, b := range batches {
		if b.TenantID != tenantID {
			return fmt.Errorf("bistro/memory: save batch %s: %w", b.ID, inventory.ErrTenantMismatch)
		}
		c := *b
		cp[i] = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[tenantID] = cp
	s.saves++
	return nil
}

// Saves reports how many snapshot writes the store has accepted.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Core methods
func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error    { return nil }
func (s *Store) Close() error                    { return nil }
