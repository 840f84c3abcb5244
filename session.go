package bistro

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/types"
)

// Session is one tenant's working set: its orders and its stock. All
// methods are safe for concurrent use; mutations are serialized.
//
// Every method takes the caller's tenant id and rejects any other with
// ErrTenantMismatch. A mutation is applied in memory first and then
// queued for persistence; a failed save never undoes it.
type Session struct {
	engine   *Bistro
	tenantID string

	mu     sync.Mutex
	orders *order.Ledger
	stock  *inventory.Ledger
	seq    uint64
}

// TenantID returns the tenant this session belongs to.
func (s *Session) TenantID() string { return s.tenantID }

// NewCart starts a cart priced with the engine's currency and VAT rule.
func (s *Session) NewCart() *order.Cart {
	c := order.NewCart(s.tenantID, s.engine.currency)
	c.TaxRule = s.engine.taxRule
	return c
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

// Submit prices cart, reconciles p against the total and records the
// resulting order in StatusNew. No stock moves until the order completes.
func (s *Session) Submit(ctx context.Context, tenantID string, cart *order.Cart, p order.Payment) (*order.Order, error) {
	var o *order.Order
	err := s.mutate(ctx, tenantID, ActionSubmitOrder, func() error {
		if err := types.CheckTenant(s.tenantID, cart.TenantID); err != nil {
			return err
		}
		if cart.Currency != s.stock.Currency() {
			return fmt.Errorf("%w: cart in %s, ledger in %s", ErrCurrencyMismatch, cart.Currency, s.stock.Currency())
		}

		var err error
		o, err = order.Submit(cart, p, s.engine.now())
		if err != nil {
			return err
		}
		return s.orders.Append(o)
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("order submitted",
		"tenant_id", s.tenantID,
		"order_id", o.ID.String(),
		"total", o.Total.String(),
		"payment", o.PaymentMethod,
	)
	s.engine.plugins.EmitOrderSubmitted(ctx, o.Clone())
	return o, nil
}

// SendToKitchen moves a new order into preparation.
func (s *Session) SendToKitchen(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	o, _, err := s.Advance(ctx, tenantID, orderID, order.EventSendToKitchen)
	return o, err
}

// MarkReady moves an order in preparation to ready for pickup.
func (s *Session) MarkReady(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	o, _, err := s.Advance(ctx, tenantID, orderID, order.EventMarkReady)
	return o, err
}

// Complete closes an order and deducts its lines from stock, oldest
// batches first. Missing stock is recorded on the order as shortfalls.
func (s *Session) Complete(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	o, _, err := s.Advance(ctx, tenantID, orderID, order.EventComplete)
	return o, err
}

// Cancel abandons an open order. Stock is not touched.
func (s *Session) Cancel(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	o, _, err := s.Advance(ctx, tenantID, orderID, order.EventCancel)
	return o, err
}

// Advance applies ev to an order and returns its new state.
func (s *Session) Advance(ctx context.Context, tenantID string, orderID id.OrderID, ev order.Event) (*order.Order, order.Transition, error) {
	var (
		o        *order.Order
		tr       order.Transition
		consumed []inventory.Consumption
	)
	deduct := order.DeductorFunc(func(tenantID, itemID string, qty int64) (order.Deduction, error) {
		c, err := s.stock.ConsumeFIFO(tenantID, itemID, qty)
		if err != nil {
			return order.Deduction{}, err
		}
		consumed = append(consumed, c)
		return order.Deduction{
			Consumed:     c.Consumed,
			Shortfall:    c.Shortfall,
			RealizedCost: c.RealizedCost,
		}, nil
	})

	err := s.mutate(ctx, tenantID, ActionAdvanceOrder, func() error {
		var err error
		o, tr, err = s.orders.Advance(tenantID, orderID, ev, deduct, s.engine.now())
		return err
	})
	if err != nil {
		return nil, order.Transition{}, err
	}

	s.engine.logger.Info("order transitioned",
		"tenant_id", s.tenantID,
		"order_id", orderID.String(),
		"event", ev,
		"from", tr.From,
		"to", tr.To,
	)
	for _, sf := range tr.Shortfalls {
		s.engine.logger.Warn("stock shortfall",
			"tenant_id", s.tenantID,
			"order_id", orderID.String(),
			"item_id", sf.ItemID,
			"requested", sf.Requested,
			"missing", sf.Missing,
		)
	}

	s.engine.plugins.EmitOrderTransitioned(ctx, o.Clone(), tr)
	for _, c := range consumed {
		s.engine.plugins.EmitStockConsumed(ctx, s.tenantID, c)
	}
	switch tr.To {
	case order.StatusCompleted:
		s.engine.plugins.EmitOrderCompleted(ctx, o.Clone())
	case order.StatusCancelled:
		s.engine.plugins.EmitOrderCancelled(ctx, o.Clone())
	}
	return o, tr, nil
}

// Settle pays an order that was submitted on a deferred tab.
func (s *Session) Settle(ctx context.Context, tenantID string, orderID id.OrderID, p order.Payment) (*order.Order, error) {
	var o *order.Order
	err := s.mutate(ctx, tenantID, ActionSettleOrder, func() error {
		var err error
		o, err = s.orders.Settle(tenantID, orderID, p, s.engine.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("order settled",
		"tenant_id", s.tenantID,
		"order_id", orderID.String(),
		"payment", o.PaymentMethod,
	)
	s.engine.plugins.EmitOrderSettled(ctx, o.Clone())
	return o, nil
}

// Remove hard-deletes an order. Stock consumed by a completed order is
// not returned.
func (s *Session) Remove(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	var o *order.Order
	err := s.mutate(ctx, tenantID, ActionRemoveOrder, func() error {
		var err error
		o, err = s.orders.Remove(tenantID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("order removed",
		"tenant_id", s.tenantID,
		"order_id", orderID.String(),
		"status", o.Status,
	)
	s.engine.plugins.EmitOrderRemoved(ctx, o.Clone())
	return o, nil
}

// Order returns a copy of one order.
func (s *Session) Order(tenantID string, orderID id.OrderID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Get(tenantID, orderID)
}

// ByStatus lists orders in any of statuses. See order.Ledger.ByStatus for
// the ordering rules.
func (s *Session) ByStatus(tenantID string, statuses ...order.Status) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.ByStatus(tenantID, statuses...)
}

// Open is the kitchen queue, oldest first.
func (s *Session) Open(tenantID string) ([]*order.Order, error) {
	return s.ByStatus(tenantID, order.OpenStatuses...)
}

// History lists completed and cancelled orders, newest first.
func (s *Session) History(tenantID string) ([]*order.Order, error) {
	return s.ByStatus(tenantID, order.HistoryStatuses...)
}

// ──────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────

// Receive records a new batch and returns a copy of it.
func (s *Session) Receive(ctx context.Context, tenantID, itemRef string, qty int64, unitCost types.Money, opts ...inventory.ReceiveOption) (*inventory.Batch, error) {
	var b *inventory.Batch
	err := s.mutate(ctx, tenantID, ActionReceiveStock, func() error {
		batchID, err := s.stock.Receive(tenantID, itemRef, qty, unitCost, opts...)
		if err != nil {
			return err
		}
		b, err = s.stock.Batch(batchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("stock received",
		"tenant_id", s.tenantID,
		"batch_id", b.ID.String(),
		"item_ref", b.ItemRef,
		"quantity", b.Quantity,
		"unit_cost", b.UnitCost.String(),
	)
	cp := *b
	s.engine.plugins.EmitStockReceived(ctx, &cp)
	return b, nil
}

// ConsumeFIFO withdraws stock outside the order flow, for waste or staff
// meals. A shortfall is reported on the result, never as an error.
func (s *Session) ConsumeFIFO(ctx context.Context, tenantID, itemRef string, qty int64) (inventory.Consumption, error) {
	var c inventory.Consumption
	err := s.mutate(ctx, tenantID, ActionConsumeStock, func() error {
		var err error
		c, err = s.stock.ConsumeFIFO(tenantID, itemRef, qty)
		return err
	})
	if err != nil {
		return inventory.Consumption{}, err
	}

	if c.Short() {
		s.engine.logger.Warn("stock shortfall",
			"tenant_id", s.tenantID,
			"item_ref", itemRef,
			"requested", c.Requested,
			"missing", c.Shortfall,
		)
	}
	s.engine.plugins.EmitStockConsumed(ctx, s.tenantID, c)
	return c, nil
}

// DeleteBatch removes a batch for administrative corrections.
func (s *Session) DeleteBatch(ctx context.Context, tenantID string, batchID id.BatchID) (*inventory.Batch, error) {
	var b *inventory.Batch
	err := s.mutate(ctx, tenantID, ActionDeleteBatch, func() error {
		var err error
		b, err = s.stock.DeleteBatch(tenantID, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.engine.logger.Info("batch deleted",
		"tenant_id", s.tenantID,
		"batch_id", batchID.String(),
		"item_ref", b.ItemRef,
		"remaining", b.Quantity,
	)
	cp := *b
	s.engine.plugins.EmitBatchDeleted(ctx, &cp)
	return b, nil
}

// CurrentStock sums the remaining quantity of itemRef.
func (s *Session) CurrentStock(tenantID, itemRef string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.CurrentStock(tenantID, itemRef)
}

// Valuation is the cost of the remaining stock of itemRef.
func (s *Session) Valuation(tenantID, itemRef string) (types.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.Valuation(tenantID, itemRef)
}

// Levels summarizes every stocked item.
func (s *Session) Levels(tenantID string) ([]inventory.StockLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.Levels(tenantID)
}

// Items lists the item refs that still have stock.
func (s *Session) Items(tenantID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.Items(tenantID)
}

// Batches returns copies of every batch in receive order.
func (s *Session) Batches(tenantID string) ([]*inventory.Batch, error) {
	if err := types.CheckTenant(s.tenantID, tenantID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock.Batches(), nil
}

// ──────────────────────────────────────────────────
// Persistence
// ──────────────────────────────────────────────────

// Sync writes the current state to the store and returns any error. Use
// it where a silent background failure is not acceptable, such as at the
// end of a shift.
func (s *Session) Sync(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	snap := s.snapshot()
	s.mu.Unlock()

	return s.engine.save(ctx, snap)
}

// mutate runs fn under the session lock after the stop, tenant and
// authorization checks, then queues a snapshot if fn succeeded.
func (s *Session) mutate(ctx context.Context, tenantID string, action Action, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.isStopped() {
		return ErrStopped
	}
	if err := types.CheckTenant(s.tenantID, tenantID); err != nil {
		return err
	}
	if err := s.engine.authorize(ctx, tenantID, action); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}

	s.seq++
	s.engine.enqueue(ctx, s.snapshot())
	return nil
}

// snapshot copies the session state. Callers hold s.mu.
func (s *Session) snapshot() snapshot {
	return snapshot{
		tenantID: s.tenantID,
		seq:      s.seq,
		orders:   s.orders.Orders(),
		batches:  s.stock.Batches(),
	}
}
