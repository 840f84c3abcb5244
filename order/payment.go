package order

import (
	"fmt"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// PaymentMethod is how an order is (or will be) paid.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCard   PaymentMethod = "card"
	MethodMobile PaymentMethod = "mobile"
	// MethodMulti splits the bill across several single-method entries.
	MethodMulti PaymentMethod = "multi"
	// MethodDeferred opens a tab that is settled later with Ledger.Settle.
	MethodDeferred PaymentMethod = "deferred"
)

// Single reports whether m is one of cash, card or mobile.
func (m PaymentMethod) Single() bool {
	return m == MethodCash || m == MethodCard || m == MethodMobile
}

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	return m.Single() || m == MethodMulti || m == MethodDeferred
}

// PaymentEntry is one part of a split payment.
type PaymentEntry struct {
	ID     id.PaymentID  `json:"id"`
	Method PaymentMethod `json:"method"`
	Amount types.Money   `json:"amount"`
}

// Entry creates a payment entry with a fresh id.
func Entry(method PaymentMethod, amount types.Money) PaymentEntry {
	return PaymentEntry{ID: id.NewPaymentID(), Method: method, Amount: amount}
}

// Payment is the tender offered when an order is submitted or settled.
type Payment struct {
	Method  PaymentMethod  `json:"method"`
	Entries []PaymentEntry `json:"entries,omitempty"`
}

// Cash pays the full total in cash.
func Cash() Payment { return Payment{Method: MethodCash} }

// Card pays the full total by card.
func Card() Payment { return Payment{Method: MethodCard} }

// Mobile pays the full total through a mobile wallet.
func Mobile() Payment { return Payment{Method: MethodMobile} }

// Deferred leaves the order unpaid.
func Deferred() Payment { return Payment{Method: MethodDeferred} }

// Split pays with several entries.
func Split(entries ...PaymentEntry) Payment {
	return Payment{Method: MethodMulti, Entries: entries}
}

// Tendered sums the entry amounts in currency.
func (p Payment) Tendered(currency string) types.Money {
	sum := types.Zero(currency)
	for _, e := range p.Entries {
		if e.Amount.Currency == sum.Currency {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// Change is the amount tendered above total. It is zero for single-method
// payments and underpayments.
func (p Payment) Change(total types.Money) types.Money {
	if p.Method != MethodMulti {
		return types.Zero(total.Currency)
	}
	over := p.Tendered(total.Currency).Subtract(total)
	if over.IsNegative() {
		return types.Zero(total.Currency)
	}
	return over
}

// Reconcile checks the payment against an order total and reports the
// resulting payment status.
//
// Single methods always cover the total. A split payment needs at least one
// entry, every entry must be a positive single-method amount, and the
// entries must add up to at least the total. Overpayment is accepted.
func (p Payment) Reconcile(total types.Money) (PaymentStatus, error) {
	switch {
	case p.Method.Single():
		return PaymentPaid, nil
	case p.Method == MethodDeferred:
		return PaymentPending, nil
	case p.Method != MethodMulti:
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, p.Method)
	}

	if len(p.Entries) == 0 {
		return "", fmt.Errorf("%w: no payment entries", ErrPaymentMismatch)
	}

	sum := types.Zero(total.Currency)
	for i, e := range p.Entries {
		if !e.Method.Single() {
			return "", fmt.Errorf("%w: entry %d uses %q", ErrUnknownPaymentMethod, i, e.Method)
		}
		if err := e.Amount.CheckCurrency(total.Currency); err != nil {
			return "", fmt.Errorf("entry %d: %w", i, err)
		}
		if !e.Amount.IsPositive() {
			return "", fmt.Errorf("%w: entry %d is %s", ErrInvalidPaymentAmount, i, e.Amount)
		}
		sum = sum.Add(e.Amount)
	}

	if sum.LessThan(total) {
		return "", fmt.Errorf("%w: tendered %s of %s", ErrPaymentMismatch, sum, total)
	}
	return PaymentPaid, nil
}

// entries returns the entries to keep on the order, with ids filled in.
func (p Payment) entries() []PaymentEntry {
	if p.Method != MethodMulti {
		return nil
	}
	out := make([]PaymentEntry, len(p.Entries))
	for i, e := range p.Entries {
		if e.ID.IsNil() {
			e.ID = id.NewPaymentID()
		}
		out[i] = e
	}
	return out
}
