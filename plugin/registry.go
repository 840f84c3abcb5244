package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onOrderSubmitted    []OnOrderSubmitted
	onOrderTransitioned []OnOrderTransitioned
	onOrderCompleted    []OnOrderCompleted
	onOrderCancelled    []OnOrderCancelled
	onOrderSettled      []OnOrderSettled
	onOrderRemoved      []OnOrderRemoved
	onStockReceived     []OnStockReceived
	onStockConsumed     []OnStockConsumed
	onStockShortfall    []OnStockShortfall
	onBatchDeleted      []OnBatchDeleted
	onPersisted         []OnPersisted
	onPersistFailed     []OnPersistFailed
	receiptFormatters   map[string]ReceiptFormatter
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:            slog.Default(),
		timeout:           DefaultTimeout,
		receiptFormatters: make(map[string]ReceiptFormatter),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnOrderSubmitted); ok {
		r.onOrderSubmitted = append(r.onOrderSubmitted, v)
	}
	if v, ok := p.(OnOrderTransitioned); ok {
		r.onOrderTransitioned = append(r.onOrderTransitioned, v)
	}
	if v, ok := p.(OnOrderCompleted); ok {
		r.onOrderCompleted = append(r.onOrderCompleted, v)
	}
	if v, ok := p.(OnOrderCancelled); ok {
		r.onOrderCancelled = append(r.onOrderCancelled, v)
	}
	if v, ok := p.(OnOrderSettled); ok {
		r.onOrderSettled = append(r.onOrderSettled, v)
	}
	if v, ok := p.(OnOrderRemoved); ok {
		r.onOrderRemoved = append(r.onOrderRemoved, v)
	}
	if v, ok := p.(OnStockReceived); ok {
		r.onStockReceived = append(r.onStockReceived, v)
	}
	if v, ok := p.(OnStockConsumed); ok {
		r.onStockConsumed = append(r.onStockConsumed, v)
	}
	if v, ok := p.(OnStockShortfall); ok {
		r.onStockShortfall = append(r.onStockShortfall, v)
	}
	if v, ok := p.(OnBatchDeleted); ok {
		r.onBatchDeleted = append(r.onBatchDeleted, v)
	}
	if v, ok := p.(OnPersisted); ok {
		r.onPersisted = append(r.onPersisted, v)
	}
	if v, ok := p.(OnPersistFailed); ok {
		r.onPersistFailed = append(r.onPersistFailed, v)
	}
	if v, ok := p.(ReceiptFormatter); ok {
		r.receiptFormatters[v.Format()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnOrderSubmitted", reflect.TypeFor[OnOrderSubmitted]()},
	{"OnOrderTransitioned", reflect.TypeFor[OnOrderTransitioned]()},
	{"OnOrderCompleted", reflect.TypeFor[OnOrderCompleted]()},
	{"OnOrderCancelled", reflect.TypeFor[OnOrderCancelled]()},
	{"OnOrderSettled", reflect.TypeFor[OnOrderSettled]()},
	{"OnOrderRemoved", reflect.TypeFor[OnOrderRemoved]()},
	{"OnStockReceived", reflect.TypeFor[OnStockReceived]()},
	{"OnStockConsumed", reflect.TypeFor[OnStockConsumed]()},
	{"OnStockShortfall", reflect.TypeFor[OnStockShortfall]()},
	{"OnBatchDeleted", reflect.TypeFor[OnBatchDeleted]()},
	{"OnPersisted", reflect.TypeFor[OnPersisted]()},
	{"OnPersistFailed", reflect.TypeFor[OnPersistFailed]()},
	{"ReceiptFormatter", reflect.TypeFor[ReceiptFormatter]()},
}

// implementedInterfaces returns a list of hooks implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ReceiptFormatter returns the formatter registered for format, or nil.
func (r *Registry) ReceiptFormatter(format string) ReceiptFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.receiptFormatters[format]
}

// ReceiptFormats lists the registered receipt formats, sorted.
func (r *Registry) ReceiptFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.receiptFormatters))
	for f := range r.receiptFormatters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	emit(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	emit(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitOrderSubmitted emits an order submitted event.
func (r *Registry) EmitOrderSubmitted(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderSubmitted
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderSubmitted", plugins, func(p OnOrderSubmitted) error {
		return p.OnOrderSubmitted(ctx, o)
	})
}

// EmitOrderTransitioned emits an order transition event.
func (r *Registry) EmitOrderTransitioned(ctx context.Context, o *order.Order, tr order.Transition) {
	r.mu.RLock()
	plugins := r.onOrderTransitioned
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderTransitioned", plugins, func(p OnOrderTransitioned) error {
		return p.OnOrderTransitioned(ctx, o, tr)
	})
}

// EmitOrderCompleted emits an order completed event.
func (r *Registry) EmitOrderCompleted(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderCompleted
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderCompleted", plugins, func(p OnOrderCompleted) error {
		return p.OnOrderCompleted(ctx, o)
	})
}

// EmitOrderCancelled emits an order cancelled event.
func (r *Registry) EmitOrderCancelled(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderCancelled
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderCancelled", plugins, func(p OnOrderCancelled) error {
		return p.OnOrderCancelled(ctx, o)
	})
}

// EmitOrderSettled emits an order settled event.
func (r *Registry) EmitOrderSettled(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderSettled
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderSettled", plugins, func(p OnOrderSettled) error {
		return p.OnOrderSettled(ctx, o)
	})
}

// EmitOrderRemoved emits an order removed event.
func (r *Registry) EmitOrderRemoved(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderRemoved
	r.mu.RUnlock()

	emit(ctx, r, "OnOrderRemoved", plugins, func(p OnOrderRemoved) error {
		return p.OnOrderRemoved(ctx, o)
	})
}

// EmitStockReceived emits a stock received event.
func (r *Registry) EmitStockReceived(ctx context.Context, b *inventory.Batch) {
	r.mu.RLock()
	plugins := r.onStockReceived
	r.mu.RUnlock()

	emit(ctx, r, "OnStockReceived", plugins, func(p OnStockReceived) error {
		return p.OnStockReceived(ctx, b)
	})
}

// EmitStockConsumed emits a stock consumed event, followed by a shortfall
// event when the withdrawal came up short.
func (r *Registry) EmitStockConsumed(ctx context.Context, tenantID string, c inventory.Consumption) {
	r.mu.RLock()
	plugins := r.onStockConsumed
	r.mu.RUnlock()

	emit(ctx, r, "OnStockConsumed", plugins, func(p OnStockConsumed) error {
		return p.OnStockConsumed(ctx, tenantID, c)
	})
	if !c.Short() {
		return
	}

	r.mu.RLock()
	short := r.onStockShortfall
	r.mu.RUnlock()

	emit(ctx, r, "OnStockShortfall", short, func(p OnStockShortfall) error {
		return p.OnStockShortfall(ctx, tenantID, c)
	})
}

// EmitBatchDeleted emits a batch deleted event.
func (r *Registry) EmitBatchDeleted(ctx context.Context, b *inventory.Batch) {
	r.mu.RLock()
	plugins := r.onBatchDeleted
	r.mu.RUnlock()

	emit(ctx, r, "OnBatchDeleted", plugins, func(p OnBatchDeleted) error {
		return p.OnBatchDeleted(ctx, b)
	})
}

// EmitPersisted emits a snapshot saved event.
func (r *Registry) EmitPersisted(ctx context.Context, tenantID string, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onPersisted
	r.mu.RUnlock()

	emit(ctx, r, "OnPersisted", plugins, func(p OnPersisted) error {
		return p.OnPersisted(ctx, tenantID, elapsed)
	})
}

// EmitPersistFailed emits a snapshot save failure.
func (r *Registry) EmitPersistFailed(ctx context.Context, tenantID string, err error) {
	r.mu.RLock()
	plugins := r.onPersistFailed
	r.mu.RUnlock()

	emit(ctx, r, "OnPersistFailed", plugins, func(p OnPersistFailed) error {
		return p.OnPersistFailed(ctx, tenantID, err)
	})
}

// emit calls every plugin in hooks, logging failures. Hook errors never
// reach the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, call func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the order workflow.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
