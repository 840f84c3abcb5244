// Package menu describes the sellable items an order line is built from.
//
// Menu management itself lives outside Bistro; this package only carries
// the reference data the cart copies into each line.
package menu

import (
	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

// Item is a menu entry. ID doubles as the inventory item ref that stock
// for this item is received under.
type Item struct {
	ID        string      `json:"id" yaml:"id"`
	TenantID  string      `json:"tenant_id" yaml:"tenant_id"`
	Name      string      `json:"name" yaml:"name"`
	Category  string      `json:"category,omitempty" yaml:"category,omitempty"`
	UnitPrice types.Money `json:"unit_price" yaml:"unit_price"`
	UnitCost  types.Money `json:"unit_cost" yaml:"unit_cost"`
}

// NewItem creates an item with a generated "item_" id.
func NewItem(tenantID, name string, price, cost types.Money) Item {
	return Item{
		ID:        id.NewMenuItemID().String(),
		TenantID:  tenantID,
		Name:      name,
		UnitPrice: price,
		UnitCost:  cost,
	}
}

// Margin is the list price minus the list cost.
func (i Item) Margin() types.Money {
	return i.UnitPrice.Subtract(i.UnitCost)
}
