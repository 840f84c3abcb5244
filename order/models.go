// Package order implements the order aggregate: the cart being built, the
// priced snapshot it becomes on submission, payment reconciliation, the
// kitchen lifecycle and the per-tenant order collection.
package order

import (
	"slices"
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew            Status = "new"
	StatusInPreparation  Status = "in_preparation"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInPreparation, StatusReadyForPickup, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// OpenStatuses are the states shown on the kitchen queue.
var OpenStatuses = []Status{StatusNew, StatusInPreparation, StatusReadyForPickup}

// HistoryStatuses are the terminal states shown in order history.
var HistoryStatuses = []Status{StatusCompleted, StatusCancelled}

// PaymentStatus tells whether the order has been settled.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
)

// Line is one menu item on an order. Price and cost are copied from the
// menu when the line is built so later menu edits never change history.
type Line struct {
	ItemID    string      `json:"item_id"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unit_price"`
	UnitCost  types.Money `json:"unit_cost"`
	Quantity  int64       `json:"quantity"`

	// RealizedCost is the FIFO cost of the stock this line consumed.
	// It is set when the order completes.
	RealizedCost *types.Money `json:"realized_cost,omitempty"`
}

// Total is the line price before tax.
func (l Line) Total() types.Money { return l.UnitPrice.Multiply(l.Quantity) }

// ListCost is the line cost at the menu's list cost.
func (l Line) ListCost() types.Money { return l.UnitCost.Multiply(l.Quantity) }

// Shortfall records stock that was missing when a line was deducted.
type Shortfall struct {
	ItemID    string `json:"item_id"`
	Requested int64  `json:"requested"`
	Consumed  int64  `json:"consumed"`
	Missing   int64  `json:"missing"`
}

// Order is a submitted, priced order.
type Order struct {
	types.Entity

	ID            id.OrderID `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Table         string     `json:"table"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Lines         []Line     `json:"lines"`

	VATIncluded bool        `json:"vat_included"`
	Subtotal    types.Money `json:"subtotal"`
	VATAmount   types.Money `json:"vat_amount"`
	Total       types.Money `json:"total"`

	PaymentMethod PaymentMethod  `json:"payment_method"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	Payments      []PaymentEntry `json:"payments,omitempty"`

	Status       Status       `json:"status"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	RealizedCost *types.Money `json:"realized_cost,omitempty"`
	Shortfalls   []Shortfall  `json:"shortfalls,omitempty"`
}

// Currency returns the currency the order was priced in.
func (o *Order) Currency() string { return o.Total.Currency }

// ItemCount sums line quantities.
func (o *Order) ItemCount() int64 {
	var n int64
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Profit is net revenue minus realized cost. It is only known once the
// order has completed.
func (o *Order) Profit() (types.Money, bool) {
	if o.RealizedCost == nil {
		return types.Money{}, false
	}
	return o.Subtotal.Subtract(*o.RealizedCost), true
}

// Paid reports whether the order has been settled.
func (o *Order) Paid() bool { return o.PaymentStatus == PaymentPaid }

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Lines = make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		if l.RealizedCost != nil {
			rc := *l.RealizedCost
			l.RealizedCost = &rc
		}
		cp.Lines[i] = l
	}
	cp.Payments = slices.Clone(o.Payments)
	cp.Shortfalls = slices.Clone(o.Shortfalls)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		cp.CompletedAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		cp.CancelledAt = &t
	}
	if o.RealizedCost != nil {
		rc := *o.RealizedCost
		cp.RealizedCost = &rc
	}
	return &cp
}
