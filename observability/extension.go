// Package observability provides a metrics extension for Bistro that records
// order and stock event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnOrderSubmitted    = (*MetricsExtension)(nil)
	_ plugin.OnOrderTransitioned = (*MetricsExtension)(nil)
	_ plugin.OnOrderCompleted    = (*MetricsExtension)(nil)
	_ plugin.OnOrderCancelled    = (*MetricsExtension)(nil)
	_ plugin.OnOrderSettled      = (*MetricsExtension)(nil)
	_ plugin.OnOrderRemoved      = (*MetricsExtension)(nil)
	_ plugin.OnStockReceived     = (*MetricsExtension)(nil)
	_ plugin.OnStockConsumed     = (*MetricsExtension)(nil)
	_ plugin.OnStockShortfall    = (*MetricsExtension)(nil)
	_ plugin.OnBatchDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnPersisted         = (*MetricsExtension)(nil)
	_ plugin.OnPersistFailed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Bistro plugin to automatically track order and stock metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Order metrics
	OrderSubmitted   Counter
	OrderTransitions Counter
	OrderCompleted   Counter
	OrderCancelled   Counter
	OrderSettled     Counter
	OrderRemoved     Counter
	OrderTotal       Histogram
	OrderItems       Histogram
	OrderLeadTime    Histogram

	// Stock metrics
	StockReceived       Counter
	StockReceivedUnits  Counter
	StockConsumedUnits  Counter
	StockShortfalls     Counter
	StockShortfallUnits Counter
	RealizedCost        Histogram
	BatchDeleted        Counter

	// Persistence metrics
	PersistLatency Histogram
	PersistErrors  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory outside of Forge.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Order metrics
		OrderSubmitted:   factory.Counter("bistro.order.submitted"),
		OrderTransitions: factory.Counter("bistro.order.transitions"),
		OrderCompleted:   factory.Counter("bistro.order.completed"),
		OrderCancelled:   factory.Counter("bistro.order.cancelled"),
		OrderSettled:     factory.Counter("bistro.order.settled"),
		OrderRemoved:     factory.Counter("bistro.order.removed"),
		OrderTotal:       factory.Histogram("bistro.order.total_minor"),
		OrderItems:       factory.Histogram("bistro.order.items"),
		OrderLeadTime:    factory.Histogram("bistro.order.lead_time_seconds"),

		// Stock metrics
		StockReceived:       factory.Counter("bistro.stock.batches.received"),
		StockReceivedUnits:  factory.Counter("bistro.stock.units.received"),
		StockConsumedUnits:  factory.Counter("bistro.stock.units.consumed"),
		StockShortfalls:     factory.Counter("bistro.stock.shortfalls"),
		StockShortfallUnits: factory.Counter("bistro.stock.units.short"),
		RealizedCost:        factory.Histogram("bistro.stock.realized_cost_minor"),
		BatchDeleted:        factory.Counter("bistro.stock.batches.deleted"),

		// Persistence metrics
		PersistLatency: factory.Histogram("bistro.persist.latency_ms"),
		PersistErrors:  factory.Counter("bistro.persist.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderSubmitted implements plugin.OnOrderSubmitted.
func (m *MetricsExtension) OnOrderSubmitted(_ context.Context, o *order.Order) error {
	m.OrderSubmitted.Inc()
	m.OrderTotal.Observe(float64(o.Total.Amount))
	m.OrderItems.Observe(float64(o.ItemCount()))
	return nil
}

// OnOrderTransitioned implements plugin.OnOrderTransitioned.
func (m *MetricsExtension) OnOrderTransitioned(_ context.Context, _ *order.Order, _ order.Transition) error {
	m.OrderTransitions.Inc()
	return nil
}

// OnOrderCompleted implements plugin.OnOrderCompleted.
func (m *MetricsExtension) OnOrderCompleted(_ context.Context, o *order.Order) error {
	m.OrderCompleted.Inc()
	if o.CompletedAt != nil {
		m.OrderLeadTime.Observe(o.CompletedAt.Sub(o.CreatedAt).Seconds())
	}
	if o.RealizedCost != nil {
		m.RealizedCost.Observe(float64(o.RealizedCost.Amount))
	}
	return nil
}

// OnOrderCancelled implements plugin.OnOrderCancelled.
func (m *MetricsExtension) OnOrderCancelled(_ context.Context, _ *order.Order) error {
	m.OrderCancelled.Inc()
	return nil
}

// OnOrderSettled implements plugin.OnOrderSettled.
func (m *MetricsExtension) OnOrderSettled(_ context.Context, _ *order.Order) error {
	m.OrderSettled.Inc()
	return nil
}

// OnOrderRemoved implements plugin.OnOrderRemoved.
func (m *MetricsExtension) OnOrderRemoved(_ context.Context, _ *order.Order) error {
	m.OrderRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockReceived implements plugin.OnStockReceived.
func (m *MetricsExtension) OnStockReceived(_ context.Context, b *inventory.Batch) error {
	m.StockReceived.Inc()
	m.StockReceivedUnits.Add(float64(b.Quantity))
	return nil
}

// OnStockConsumed implements plugin.OnStockConsumed.
func (m *MetricsExtension) OnStockConsumed(_ context.Context, _ string, c inventory.Consumption) error {
	m.StockConsumedUnits.Add(float64(c.Consumed))
	return nil
}

// OnStockShortfall implements plugin.OnStockShortfall.
func (m *MetricsExtension) OnStockShortfall(_ context.Context, _ string, c inventory.Consumption) error {
	m.StockShortfalls.Inc()
	m.StockShortfallUnits.Add(float64(c.Shortfall))
	return nil
}

// OnBatchDeleted implements plugin.OnBatchDeleted.
func (m *MetricsExtension) OnBatchDeleted(_ context.Context, _ *inventory.Batch) error {
	m.BatchDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnPersisted implements plugin.OnPersisted.
func (m *MetricsExtension) OnPersisted(_ context.Context, _ string, elapsed time.Duration) error {
	m.PersistLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnPersistFailed implements plugin.OnPersistFailed.
func (m *MetricsExtension) OnPersistFailed(_ context.Context, _ string, _ error) error {
	m.PersistErrors.Inc()
	return nil
}
