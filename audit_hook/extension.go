// Package audithook bridges Bistro order and stock events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnOrderSubmitted    = (*Extension)(nil)
	_ plugin.OnOrderTransitioned = (*Extension)(nil)
	_ plugin.OnOrderSettled      = (*Extension)(nil)
	_ plugin.OnOrderRemoved      = (*Extension)(nil)
	_ plugin.OnStockReceived     = (*Extension)(nil)
	_ plugin.OnStockConsumed     = (*Extension)(nil)
	_ plugin.OnStockShortfall    = (*Extension)(nil)
	_ plugin.OnBatchDeleted      = (*Extension)(nil)
	_ plugin.OnPersistFailed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single entry in the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	TenantID   string         `json:"tenant_id"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Bistro lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderSubmitted implements plugin.OnOrderSubmitted.
func (e *Extension) OnOrderSubmitted(ctx context.Context, o *order.Order) error {
	return e.record(ctx, ActionOrderSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.TenantID, o.ID.String(), CategorySales, nil,
		"table", o.Table,
		"total", o.Total.String(),
		"payment_method", string(o.PaymentMethod),
		"payment_status", string(o.PaymentStatus),
		"items", o.ItemCount(),
	)
}

// OnOrderTransitioned implements plugin.OnOrderTransitioned. Completion
// with missing stock is recorded as a partial outcome.
func (e *Extension) OnOrderTransitioned(ctx context.Context, o *order.Order, tr order.Transition) error {
	action, category := transitionAction(tr.To)
	if action == "" {
		return nil
	}

	severity, outcome := SeverityInfo, OutcomeSuccess
	if len(tr.Shortfalls) > 0 {
		severity, outcome = SeverityWarning, OutcomePartial
	}

	kv := []any{
		"event", string(tr.Event),
		"from", string(tr.From),
		"to", string(tr.To),
	}
	if o.RealizedCost != nil {
		kv = append(kv, "realized_cost", o.RealizedCost.String())
	}
	if len(tr.Shortfalls) > 0 {
		kv = append(kv, "shortfalls", len(tr.Shortfalls))
	}
	return e.record(ctx, action, severity, outcome,
		ResourceOrder, tr.TenantID, tr.OrderID.String(), category, nil,
		kv...,
	)
}

// OnOrderSettled implements plugin.OnOrderSettled.
func (e *Extension) OnOrderSettled(ctx context.Context, o *order.Order) error {
	return e.record(ctx, ActionOrderSettled, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.TenantID, o.ID.String(), CategoryPayment, nil,
		"total", o.Total.String(),
		"payment_method", string(o.PaymentMethod),
	)
}

// OnOrderRemoved implements plugin.OnOrderRemoved. Removal bypasses the
// lifecycle, so it is recorded as a warning.
func (e *Extension) OnOrderRemoved(ctx context.Context, o *order.Order) error {
	return e.record(ctx, ActionOrderRemoved, SeverityWarning, OutcomeSuccess,
		ResourceOrder, o.TenantID, o.ID.String(), CategorySales, nil,
		"status", string(o.Status),
		"total", o.Total.String(),
	)
}

func transitionAction(to order.Status) (string, string) {
	switch to {
	case order.StatusInPreparation:
		return ActionOrderSentToKitchen, CategoryKitchen
	case order.StatusReadyForPickup:
		return ActionOrderReady, CategoryKitchen
	case order.StatusCompleted:
		return ActionOrderCompleted, CategorySales
	case order.StatusCancelled:
		return ActionOrderCancelled, CategorySales
	default:
		return "", ""
	}
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockReceived implements plugin.OnStockReceived.
func (e *Extension) OnStockReceived(ctx context.Context, b *inventory.Batch) error {
	return e.record(ctx, ActionStockReceived, SeverityInfo, OutcomeSuccess,
		ResourceBatch, b.TenantID, b.ID.String(), CategoryInventory, nil,
		"item_ref", b.ItemRef,
		"kind", string(b.Kind),
		"quantity", b.Quantity,
		"unit_cost", b.UnitCost.String(),
		"reference", b.Reference,
	)
}

// OnStockConsumed implements plugin.OnStockConsumed.
func (e *Extension) OnStockConsumed(ctx context.Context, tenantID string, c inventory.Consumption) error {
	batches := make([]string, 0, len(c.Allocations))
	for _, a := range c.Allocations {
		batches = append(batches, a.BatchID.String())
	}
	return e.record(ctx, ActionStockConsumed, SeverityInfo, OutcomeSuccess,
		ResourceStock, tenantID, c.ItemRef, CategoryInventory, nil,
		"requested", c.Requested,
		"consumed", c.Consumed,
		"realized_cost", c.RealizedCost.String(),
		"batches", batches,
	)
}

// OnStockShortfall implements plugin.OnStockShortfall.
func (e *Extension) OnStockShortfall(ctx context.Context, tenantID string, c inventory.Consumption) error {
	return e.record(ctx, ActionStockShortfall, SeverityWarning, OutcomePartial,
		ResourceStock, tenantID, c.ItemRef, CategoryInventory, nil,
		"requested", c.Requested,
		"consumed", c.Consumed,
		"missing", c.Shortfall,
	)
}

// OnBatchDeleted implements plugin.OnBatchDeleted.
func (e *Extension) OnBatchDeleted(ctx context.Context, b *inventory.Batch) error {
	return e.record(ctx, ActionBatchDeleted, SeverityWarning, OutcomeSuccess,
		ResourceBatch, b.TenantID, b.ID.String(), CategoryInventory, nil,
		"item_ref", b.ItemRef,
		"remaining", b.Quantity,
	)
}

// ──────────────────────────────────────────────────
// Persistence hooks
// ──────────────────────────────────────────────────

// OnPersistFailed implements plugin.OnPersistFailed.
func (e *Extension) OnPersistFailed(ctx context.Context, tenantID string, err error) error {
	return e.record(ctx, ActionPersistFailed, SeverityError, OutcomeFailure,
		ResourceSnapshot, tenantID, "", CategorySystem, err,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, tenantID, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		TenantID:   tenantID,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"tenant_id", tenantID,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
