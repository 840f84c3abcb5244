package order

import (
	"fmt"
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Event drives an order from one status to the next.
type Event string

const (
	EventSendToKitchen Event = "send_to_kitchen"
	EventMarkReady     Event = "mark_ready"
	EventComplete      Event = "complete"
	EventCancel        Event = "cancel"
)

var transitions = map[Status]map[Event]Status{
	StatusNew: {
		EventSendToKitchen: StatusInPreparation,
		EventCancel:        StatusCancelled,
	},
	StatusInPreparation: {
		EventMarkReady: StatusReadyForPickup,
		EventCancel:    StatusCancelled,
	},
	StatusReadyForPickup: {
		EventComplete: StatusCompleted,
		EventCancel:   StatusCancelled,
	},
}

// Next returns the status ev leads to from, or ErrInvalidTransition when
// the event is not allowed there. Terminal statuses allow nothing.
func Next(from Status, ev Event) (Status, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// Allowed lists the events accepted in status s.
func Allowed(s Status) []Event {
	var out []Event
	for _, ev := range []Event{EventSendToKitchen, EventMarkReady, EventComplete, EventCancel} {
		if _, ok := transitions[s][ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Deduction is the stock a completed line consumed.
type Deduction struct {
	Consumed     int64
	Shortfall    int64
	RealizedCost types.Money
}

// Deductor withdraws stock for a completed line. Implementations must only
// fail on programming errors such as a tenant mismatch; running short of
// stock is reported through Deduction.Shortfall.
type Deductor interface {
	Deduct(tenantID, itemID string, qty int64) (Deduction, error)
}

// DeductorFunc adapts a function to Deductor.
type DeductorFunc func(tenantID, itemID string, qty int64) (Deduction, error)

// Deduct implements Deductor.
func (f DeductorFunc) Deduct(tenantID, itemID string, qty int64) (Deduction, error) {
	return f(tenantID, itemID, qty)
}

// Transition describes an applied event.
type Transition struct {
	OrderID    id.OrderID  `json:"order_id"`
	TenantID   string      `json:"tenant_id"`
	Event      Event       `json:"event"`
	From       Status      `json:"from"`
	To         Status      `json:"to"`
	At         time.Time   `json:"at"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// apply moves o through ev. Stock is deducted only on the way into
// StatusCompleted; since that status is terminal, a repeated complete is
// rejected before any deduction happens.
func (o *Order) apply(ev Event, d Deductor, at time.Time) (Transition, error) {
	to, err := Next(o.Status, ev)
	if err != nil {
		return Transition{}, fmt.Errorf("order %s: %w", o.ID, err)
	}
	at = at.UTC()

	tr := Transition{
		OrderID:  o.ID,
		TenantID: o.TenantID,
		Event:    ev,
		From:     o.Status,
		To:       to,
		At:       at,
	}

	switch to {
	case StatusCompleted:
		if d == nil {
			return Transition{}, fmt.Errorf("order %s: %w", o.ID, ErrNoDeductor)
		}
		if err := o.deduct(d); err != nil {
			return Transition{}, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.CompletedAt = &at
		tr.Shortfalls = o.Shortfalls
	case StatusCancelled:
		o.CancelledAt = &at
	}

	o.Status = to
	o.Touch(at)
	return tr, nil
}

// deduct consumes stock for every line. Each line records its realized
// cost as soon as its deduction succeeds, so when d fails part way the
// lines already taken are skipped on the next attempt.
func (o *Order) deduct(d Deductor) error {
	for i := range o.Lines {
		l := &o.Lines[i]
		if l.RealizedCost != nil {
			continue
		}
		ded, err := d.Deduct(o.TenantID, l.ItemID, l.Quantity)
		if err != nil {
			return fmt.Errorf("deduct %s: %w", l.ItemID, err)
		}
		cost := ded.RealizedCost
		l.RealizedCost = &cost
		if ded.Shortfall > 0 {
			o.Shortfalls = append(o.Shortfalls, Shortfall{
				ItemID:    l.ItemID,
				Requested: l.Quantity,
				Consumed:  ded.Consumed,
				Missing:   ded.Shortfall,
			})
		}
	}

	total := types.Zero(o.Currency())
	for _, l := range o.Lines {
		total = total.Add(*l.RealizedCost)
	}
	o.RealizedCost = &total
	return nil
}
