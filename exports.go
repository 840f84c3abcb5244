package bistro

import (
	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/types"
)

// Re-export common types for convenience so users don't have to import
// every subpackage for a simple integration.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Order is re-exported from the order package.
type Order = order.Order

// Batch is re-exported from the inventory package.
type Batch = inventory.Batch

// MenuItem is re-exported from the menu package.
type MenuItem = menu.Item

// Re-export Money constructors
var (
	TRY  = types.TRY
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export payment constructors
var (
	Cash     = order.Cash
	Card     = order.Card
	Mobile   = order.Mobile
	Deferred = order.Deferred
	Split    = order.Split
	Entry    = order.Entry
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
