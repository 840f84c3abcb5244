// Package plugin provides an extensible plugin system for Bistro.
// Plugins can hook into order and stock events to extend functionality.
package plugin

import (
	"context"
	"io"
	"time"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *bistro.Bistro.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderSubmitted is called after a cart becomes an order.
type OnOrderSubmitted interface {
	Plugin
	OnOrderSubmitted(ctx context.Context, o *order.Order) error
}

// OnOrderTransitioned is called after every accepted lifecycle event.
type OnOrderTransitioned interface {
	Plugin
	OnOrderTransitioned(ctx context.Context, o *order.Order, tr order.Transition) error
}

// OnOrderCompleted is called once per order, after stock was deducted.
type OnOrderCompleted interface {
	Plugin
	OnOrderCompleted(ctx context.Context, o *order.Order) error
}

// OnOrderCancelled is called when an order is cancelled.
type OnOrderCancelled interface {
	Plugin
	OnOrderCancelled(ctx context.Context, o *order.Order) error
}

// OnOrderSettled is called when a deferred order is paid.
type OnOrderSettled interface {
	Plugin
	OnOrderSettled(ctx context.Context, o *order.Order) error
}

// OnOrderRemoved is called after an order is hard-deleted.
type OnOrderRemoved interface {
	Plugin
	OnOrderRemoved(ctx context.Context, o *order.Order) error
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockReceived is called when a batch is received.
type OnStockReceived interface {
	Plugin
	OnStockReceived(ctx context.Context, b *inventory.Batch) error
}

// OnStockConsumed is called for every FIFO withdrawal, short or not.
type OnStockConsumed interface {
	Plugin
	OnStockConsumed(ctx context.Context, tenantID string, c inventory.Consumption) error
}

// OnStockShortfall is called when a withdrawal could not be filled.
type OnStockShortfall interface {
	Plugin
	OnStockShortfall(ctx context.Context, tenantID string, c inventory.Consumption) error
}

// OnBatchDeleted is called after a batch is removed from the ledger.
type OnBatchDeleted interface {
	Plugin
	OnBatchDeleted(ctx context.Context, b *inventory.Batch) error
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnPersisted is called after a tenant snapshot is saved.
type OnPersisted interface {
	Plugin
	OnPersisted(ctx context.Context, tenantID string, elapsed time.Duration) error
}

// OnPersistFailed is called when a tenant snapshot could not be saved.
// The in-memory state is kept either way.
type OnPersistFailed interface {
	Plugin
	OnPersistFailed(ctx context.Context, tenantID string, err error) error
}

// ──────────────────────────────────────────────────
// Receipt formatters
// ──────────────────────────────────────────────────

// ReceiptFormatter renders an order for printing or export.
type ReceiptFormatter interface {
	Plugin
	Format() string // "text", "html", ...
	Render(ctx context.Context, o *order.Order, w io.Writer) error
}
