package order

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Ledger is the set of orders owned by one tenant, keyed by order id.
//
// Like inventory.Ledger it is not safe for concurrent use. Orders handed
// out are copies; the only way to change a stored order is through the
// Ledger's own methods.
type Ledger struct {
	tenantID string
	orders   map[string]*Order
}

// NewLedger builds a tenant's ledger from persisted orders.
func NewLedger(tenantID string, orders []*Order) (*Ledger, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: empty tenant id", ErrTenantMismatch)
	}
	l := &Ledger{
		tenantID: tenantID,
		orders:   make(map[string]*Order, len(orders)),
	}
	for _, o := range orders {
		if err := l.Append(o); err != nil {
			return nil, fmt.Errorf("order: load %s: %w", o.ID, err)
		}
	}
	return l, nil
}

// TenantID returns the owning tenant.
func (l *Ledger) TenantID() string { return l.tenantID }

// Len returns the number of orders.
func (l *Ledger) Len() int { return len(l.orders) }

// Append stores a new order. An id that is already present is rejected
// with ErrDuplicateOrderID; the existing order is never overwritten.
func (l *Ledger) Append(o *Order) error {
	if err := types.CheckTenant(l.tenantID, o.TenantID); err != nil {
		return err
	}
	if o.ID.IsNil() {
		return ErrMissingOrderID
	}
	if _, exists := l.orders[o.ID.String()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOrderID, o.ID)
	}
	if len(o.Lines) == 0 {
		return fmt.Errorf("order %s: %w", o.ID, ErrEmptyCart)
	}
	for _, line := range o.Lines {
		if line.Quantity < 1 {
			return fmt.Errorf("order %s line %s: %w", o.ID, line.ItemID, ErrInvalidQuantity)
		}
	}
	if !o.Status.Valid() {
		return fmt.Errorf("order %s: unknown status %q", o.ID, o.Status)
	}
	l.orders[o.ID.String()] = o.Clone()
	return nil
}

// Get returns a copy of one order.
func (l *Ledger) Get(tenantID string, orderID id.OrderID) (*Order, error) {
	o, err := l.lookup(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// Advance applies ev to an order. Completion deducts each line through d;
// other events ignore it. The returned order is a copy of the new state.
func (l *Ledger) Advance(tenantID string, orderID id.OrderID, ev Event, d Deductor, at time.Time) (*Order, Transition, error) {
	o, err := l.lookup(tenantID, orderID)
	if err != nil {
		return nil, Transition{}, err
	}
	tr, err := o.apply(ev, d, at)
	if err != nil {
		return nil, Transition{}, err
	}
	return o.Clone(), tr, nil
}

// Settle pays a pending order. Settling is independent of the kitchen
// lifecycle, so a tab can be closed before or after completion.
func (l *Ledger) Settle(tenantID string, orderID id.OrderID, p Payment, at time.Time) (*Order, error) {
	o, err := l.lookup(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Paid() {
		return nil, fmt.Errorf("order %s: %w", o.ID, ErrAlreadyPaid)
	}
	if p.Method == MethodDeferred {
		return nil, fmt.Errorf("%w: cannot settle with %q", ErrUnknownPaymentMethod, p.Method)
	}
	status, err := p.Reconcile(o.Total)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = p.Method
	o.PaymentStatus = status
	o.Payments = p.entries()
	o.Touch(at)
	return o.Clone(), nil
}

// ByStatus returns copies of the orders in any of statuses.
//
// A query made up only of open statuses is a kitchen queue and comes back
// oldest first (id ascending). Any query that includes a terminal status,
// or names no status at all, is a history view and comes back newest first.
func (l *Ledger) ByStatus(tenantID string, statuses ...Status) ([]*Order, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return nil, err
	}

	history := len(statuses) == 0
	for _, s := range statuses {
		if s.Terminal() {
			history = true
		}
	}

	out := make([]*Order, 0)
	for _, o := range l.orders {
		if len(statuses) == 0 || slices.Contains(statuses, o.Status) {
			out = append(out, o.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *Order) int {
		c := strings.Compare(a.ID.String(), b.ID.String())
		if history {
			return -c
		}
		return c
	})
	return out, nil
}

// Open is the kitchen queue, oldest first.
func (l *Ledger) Open(tenantID string) ([]*Order, error) {
	return l.ByStatus(tenantID, OpenStatuses...)
}

// History lists completed and cancelled orders, newest first.
func (l *Ledger) History(tenantID string) ([]*Order, error) {
	return l.ByStatus(tenantID, HistoryStatuses...)
}

// Remove hard-deletes an order in any status. Stock already deducted for
// a completed order stays deducted.
func (l *Ledger) Remove(tenantID string, orderID id.OrderID) (*Order, error) {
	o, err := l.lookup(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	delete(l.orders, orderID.String())
	return o, nil
}

// Orders returns copies of every order, id ascending.
func (l *Ledger) Orders() []*Order {
	out := make([]*Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o.Clone())
	}
	slices.SortFunc(out, func(a, b *Order) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func (l *Ledger) lookup(tenantID string, orderID id.OrderID) (*Order, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return nil, err
	}
	o, ok := l.orders[orderID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return o, nil
}
