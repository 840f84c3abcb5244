// Package store defines the persistence port for Bistro.
//
// A Store keeps whole per-tenant snapshots: every save replaces the
// tenant's orders or batches with the given set. Loading a tenant that
// was never saved returns an empty set, not an error.
package store

import (
	"context"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
)

// Store is the unified storage interface for all Bistro entities.
// The order and inventory ports are embedded so the ledgers can depend on
// the narrow interfaces while the engine holds the whole store.
type Store interface {
	order.Store
	inventory.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
