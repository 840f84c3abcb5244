// Package fallback composes several stores into one: a primary that is
// read first and any number of fallbacks that are read when it fails.
// Saves go to every store so a local copy survives a remote outage.
package fallback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	bistrostore "github.com/xraph/bistro/store"
)

// compile-time interface check
var _ bistrostore.Store = (*Store)(nil)

// Store fans saves out to all members and serves loads from the first
// member that answers.
type Store struct {
	stores []bistrostore.Store
	logger *slog.Logger
}

// Option configures the fallback store.
type Option func(*Store)

// WithLogger sets the logger used to report member failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds a store with primary read first and fallbacks in order.
func New(primary bistrostore.Store, fallbacks []bistrostore.Store, opts ...Option) *Store {
	s := &Store{
		stores: append([]bistrostore.Store{primary}, fallbacks...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==================== Order Store ====================

func (s *Store) LoadOrders(ctx context.Context, tenantID string) ([]*order.Order, error) {
	return load(ctx, s, "orders", func(st bistrostore.Store) ([]*order.Order, error) {
		return st.LoadOrders(ctx, tenantID)
	})
}

func (s *Store) SaveOrders(ctx context.Context, tenantID string, orders []*order.Order) error {
	return s.each("save orders", func(st bistrostore.Store) error {
		return st.SaveOrders(ctx, tenantID, orders)
	})
}

// ==================== Inventory Store ====================

func (s *Store) LoadInventory(ctx context.Context, tenantID string) ([]*inventory.Batch, error) {
	return load(ctx, s, "inventory", func(st bistrostore.Store) ([]*inventory.Batch, error) {
		return st.LoadInventory(ctx, tenantID)
	})
}

func (s *Store) SaveInventory(ctx context.Context, tenantID string, batches []*inventory.Batch) error {
	return s.each("save inventory", func(st bistrostore.Store) error {
		return st.SaveInventory(ctx, tenantID, batches)
	})
}

// ==================== Core ====================

// Migrate migrates every member. A member that fails to migrate is
// reported but does not stop the others.
func (s *Store) Migrate(ctx context.Context) error {
	return s.each("migrate", func(st bistrostore.Store) error { return st.Migrate(ctx) })
}

// Ping succeeds when at least one member is reachable.
func (s *Store) Ping(ctx context.Context) error {
	var errs bistro.MultiError
	for i, st := range s.stores {
		if err := st.Ping(ctx); err != nil {
			errs.Add(fmt.Errorf("bistro/fallback: store %d: %w", i, err))
			continue
		}
		return nil
	}
	return errs.ErrOrNil()
}

func (s *Store) Close() error {
	return s.each("close", func(st bistrostore.Store) error { return st.Close() })
}

// ==================== Helpers ====================

func (s *Store) each(op string, fn func(bistrostore.Store) error) error {
	var errs bistro.MultiError
	for i, st := range s.stores {
		if err := fn(st); err != nil {
			s.logger.Warn("fallback member failed", "op", op, "store", i, "error", err)
			errs.Add(fmt.Errorf("bistro/fallback: %s on store %d: %w", op, i, err))
		}
	}
	return errs.ErrOrNil()
}

func load[T any](ctx context.Context, s *Store, what string, fn func(bistrostore.Store) ([]T, error)) ([]T, error) {
	errs := bistro.MultiError{}
	for i, st := range s.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := fn(st)
		if err == nil {
			if i > 0 {
				s.logger.Info("served from fallback store", "what", what, "store", i)
			}
			return out, nil
		}
		s.logger.Warn("fallback member failed", "op", "load "+what, "store", i, "error", err)
		errs.Add(fmt.Errorf("bistro/fallback: load %s from store %d: %w", what, i, err))
	}
	if !errs.HasErrors() {
		return nil, bistro.ErrNoStores
	}
	return nil, errs
}
