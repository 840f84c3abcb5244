// Package inventory holds the per-tenant ledger of cost-bearing stock
// batches and consumes them first-in-first-out.
package inventory

import (
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Kind distinguishes sellable stock from ingredients.
type Kind string

const (
	// KindMenuItem is stock of a finished, sellable menu item.
	KindMenuItem Kind = "menu_item"
	// KindRawMaterial is an ingredient or supply.
	KindRawMaterial Kind = "raw_material"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMenuItem || k == KindRawMaterial
}

// Batch is one receipt of stock at a single unit cost. Quantity only ever
// decreases after the batch is received. Exhausted batches stay in the
// ledger so valuation history can be audited.
type Batch struct {
	ID         id.BatchID  `json:"id"`
	TenantID   string      `json:"tenant_id"`
	Kind       Kind        `json:"kind"`
	ItemRef    string      `json:"item_ref"`
	Quantity   int64       `json:"quantity"`
	UnitCost   types.Money `json:"unit_cost"`
	ReceivedAt time.Time   `json:"received_at"`
	Reference  string      `json:"reference,omitempty"` // supplier invoice, PO number
}

// Exhausted reports whether nothing is left to consume.
func (b *Batch) Exhausted() bool { return b.Quantity <= 0 }

// Value is the remaining quantity at unit cost.
func (b *Batch) Value() types.Money { return b.UnitCost.Multiply(b.Quantity) }

// take removes up to qty units and reports how many were taken.
func (b *Batch) take(qty int64) int64 {
	n := min(b.Quantity, qty)
	b.Quantity -= n
	return n
}

// Allocation records how much of one batch a consumption used.
type Allocation struct {
	BatchID  id.BatchID  `json:"batch_id"`
	Quantity int64       `json:"quantity"`
	UnitCost types.Money `json:"unit_cost"`
	Cost     types.Money `json:"cost"`
}

// Consumption is the outcome of a FIFO withdrawal. A positive Shortfall
// means stock ran out before the request was filled; it is a warning, not
// an error.
type Consumption struct {
	ItemRef      string       `json:"item_ref"`
	Requested    int64        `json:"requested"`
	Consumed     int64        `json:"consumed"`
	Shortfall    int64        `json:"shortfall"`
	RealizedCost types.Money  `json:"realized_cost"`
	Allocations  []Allocation `json:"allocations,omitempty"`
}

// Short reports whether the request could not be filled.
func (c Consumption) Short() bool { return c.Shortfall > 0 }

// StockLevel summarizes one item for listings.
type StockLevel struct {
	ItemRef   string      `json:"item_ref"`
	Kind      Kind        `json:"kind"`
	Quantity  int64       `json:"quantity"`
	Valuation types.Money `json:"valuation"`
	Batches   int         `json:"batches"`
}
