package bistro

import "github.com/xraph/bistro/id"

// ID is the primary identifier type for all Bistro entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// OrderID identifies an order.
type OrderID = id.OrderID

// BatchID identifies an inventory batch.
type BatchID = id.BatchID
