package inventory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Ledger is the append-only batch collection of a single tenant.
//
// A Ledger is not safe for concurrent use; the owning session serializes
// access. Every operation takes the caller's tenant id and rejects it with
// ErrTenantMismatch unless it matches the ledger's owner.
type Ledger struct {
	tenantID string
	currency string
	batches  []*Batch // insertion order
	byID     map[string]*Batch
	now      func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to stamp received batches.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger builds a tenant's ledger from previously persisted batches,
// which must all belong to tenantID and be costed in currency. Batches keep
// the order they are given in, which is the tie-break for equal receive
// times.
func NewLedger(tenantID, currency string, batches []*Batch, opts ...Option) (*Ledger, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: empty tenant id", ErrTenantMismatch)
	}
	l := &Ledger{
		tenantID: tenantID,
		currency: strings.ToLower(currency),
		batches:  make([]*Batch, 0, len(batches)),
		byID:     make(map[string]*Batch, len(batches)),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, b := range batches {
		if err := types.CheckTenant(tenantID, b.TenantID); err != nil {
			return nil, fmt.Errorf("inventory: load batch %s: %w", b.ID, err)
		}
		if err := b.UnitCost.CheckCurrency(l.currency); err != nil {
			return nil, fmt.Errorf("inventory: load batch %s: %w", b.ID, err)
		}
		if _, dup := l.byID[b.ID.String()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBatch, b.ID)
		}
		cp := *b
		l.batches = append(l.batches, &cp)
		l.byID[cp.ID.String()] = &cp
	}
	return l, nil
}

// TenantID returns the owning tenant.
func (l *Ledger) TenantID() string { return l.tenantID }

// Currency returns the currency every unit cost is held in.
func (l *Ledger) Currency() string { return l.currency }

// ──────────────────────────────────────────────────
// Receiving
// ──────────────────────────────────────────────────

// ReceiveOption customizes a received batch.
type ReceiveOption func(*Batch)

// WithKind sets the batch kind. The default is KindMenuItem.
func WithKind(k Kind) ReceiveOption {
	return func(b *Batch) { b.Kind = k }
}

// WithReceivedAt backdates a batch, e.g. when entering paper invoices.
func WithReceivedAt(t time.Time) ReceiveOption {
	return func(b *Batch) { b.ReceivedAt = t.UTC() }
}

// WithReference attaches a supplier invoice or PO reference.
func WithReference(ref string) ReceiveOption {
	return func(b *Batch) { b.Reference = ref }
}

// Receive appends a new batch of qty units at unitCost each.
func (l *Ledger) Receive(tenantID, itemRef string, qty int64, unitCost types.Money, opts ...ReceiveOption) (id.BatchID, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return id.Nil, err
	}
	if itemRef == "" {
		return id.Nil, ErrMissingItemRef
	}
	if qty <= 0 {
		return id.Nil, fmt.Errorf("%w: receive %d of %s", ErrInvalidQuantity, qty, itemRef)
	}
	if unitCost.IsNegative() {
		return id.Nil, fmt.Errorf("%w: %s", ErrInvalidUnitCost, unitCost)
	}
	if err := unitCost.CheckCurrency(l.currency); err != nil {
		return id.Nil, err
	}

	b := &Batch{
		ID:         id.NewBatchID(),
		TenantID:   l.tenantID,
		Kind:       KindMenuItem,
		ItemRef:    itemRef,
		Quantity:   qty,
		UnitCost:   unitCost,
		ReceivedAt: l.now().UTC(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if !b.Kind.Valid() {
		return id.Nil, fmt.Errorf("%w: %q", ErrInvalidKind, b.Kind)
	}

	l.batches = append(l.batches, b)
	l.byID[b.ID.String()] = b
	return b.ID, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// CurrentStock sums the remaining quantity of itemRef.
func (l *Ledger) CurrentStock(tenantID, itemRef string) (int64, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return 0, err
	}
	var total int64
	for _, b := range l.batches {
		if b.ItemRef == itemRef && !b.Exhausted() {
			total += b.Quantity
		}
	}
	return total, nil
}

// Valuation is the remaining stock of itemRef at each batch's unit cost.
func (l *Ledger) Valuation(tenantID, itemRef string) (types.Money, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return types.Money{}, err
	}
	total := types.Zero(l.currency)
	for _, b := range l.batches {
		if b.ItemRef == itemRef && !b.Exhausted() {
			total = total.Add(b.Value())
		}
	}
	return total, nil
}

// Levels summarizes every item with remaining stock, ordered by item ref.
func (l *Ledger) Levels(tenantID string) ([]StockLevel, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return nil, err
	}
	byRef := make(map[string]*StockLevel)
	for _, b := range l.batches {
		if b.Exhausted() {
			continue
		}
		lvl, ok := byRef[b.ItemRef]
		if !ok {
			lvl = &StockLevel{ItemRef: b.ItemRef, Kind: b.Kind, Valuation: types.Zero(l.currency)}
			byRef[b.ItemRef] = lvl
		}
		lvl.Quantity += b.Quantity
		lvl.Valuation = lvl.Valuation.Add(b.Value())
		lvl.Batches++
	}

	levels := make([]StockLevel, 0, len(byRef))
	for _, lvl := range byRef {
		levels = append(levels, *lvl)
	}
	slices.SortFunc(levels, func(a, b StockLevel) int { return cmp.Compare(a.ItemRef, b.ItemRef) })
	return levels, nil
}

// Items lists the item refs that still have stock, sorted.
func (l *Ledger) Items(tenantID string) ([]string, error) {
	levels, err := l.Levels(tenantID)
	if err != nil {
		return nil, err
	}
	refs := make([]string, len(levels))
	for i, lvl := range levels {
		refs[i] = lvl.ItemRef
	}
	return refs, nil
}

// Batches returns a copy of every batch, exhausted ones included, in
// insertion order.
func (l *Ledger) Batches() []*Batch {
	out := make([]*Batch, len(l.batches))
	for i, b := range l.batches {
		cp := *b
		out[i] = &cp
	}
	return out
}

// Batch returns a copy of a single batch.
func (l *Ledger) Batch(batchID id.BatchID) (*Batch, error) {
	b, ok := l.byID[batchID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	cp := *b
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Consumption
// ──────────────────────────────────────────────────

// ConsumeFIFO withdraws qty units of itemRef from the oldest batches first.
//
// If stock runs out the ledger consumes what exists and reports the rest
// as Shortfall; running short is never an error.
func (l *Ledger) ConsumeFIFO(tenantID, itemRef string, qty int64) (Consumption, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return Consumption{}, err
	}
	if qty <= 0 {
		return Consumption{}, fmt.Errorf("%w: consume %d of %s", ErrInvalidQuantity, qty, itemRef)
	}

	c := Consumption{
		ItemRef:      itemRef,
		Requested:    qty,
		RealizedCost: types.Zero(l.currency),
	}
	remaining := qty
	for _, b := range l.candidates(itemRef) {
		if remaining == 0 {
			break
		}
		n := b.take(remaining)
		cost := b.UnitCost.Multiply(n)
		c.Allocations = append(c.Allocations, Allocation{
			BatchID:  b.ID,
			Quantity: n,
			UnitCost: b.UnitCost,
			Cost:     cost,
		})
		c.RealizedCost = c.RealizedCost.Add(cost)
		c.Consumed += n
		remaining -= n
	}
	c.Shortfall = remaining
	return c, nil
}

// candidates returns the live batches of itemRef, oldest receipt first.
// The sort is stable so equal receive times keep insertion order.
func (l *Ledger) candidates(itemRef string) []*Batch {
	var live []*Batch
	for _, b := range l.batches {
		if b.ItemRef == itemRef && !b.Exhausted() {
			live = append(live, b)
		}
	}
	slices.SortStableFunc(live, func(a, b *Batch) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return live
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// DeleteBatch removes a batch outright. It exists for administrative
// corrections and is never used by the order flow.
func (l *Ledger) DeleteBatch(tenantID string, batchID id.BatchID) (*Batch, error) {
	if err := types.CheckTenant(l.tenantID, tenantID); err != nil {
		return nil, err
	}
	b, ok := l.byID[batchID.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	delete(l.byID, batchID.String())
	l.batches = slices.DeleteFunc(l.batches, func(x *Batch) bool { return x == b })
	return b, nil
}
