package audithook

// Action constants for audit events.
const (
	// Order actions
	ActionOrderSubmitted     = "order.submitted"
	ActionOrderSentToKitchen = "order.sent_to_kitchen"
	ActionOrderReady         = "order.ready"
	ActionOrderCompleted     = "order.completed"
	ActionOrderCancelled     = "order.cancelled"
	ActionOrderSettled       = "order.settled"
	ActionOrderRemoved       = "order.removed"

	// Stock actions
	ActionStockReceived  = "stock.received"
	ActionStockConsumed  = "stock.consumed"
	ActionStockShortfall = "stock.shortfall"
	ActionBatchDeleted   = "batch.deleted"

	// Persistence actions
	ActionPersistFailed = "persist.failed"
)

// Resource constants for audit events.
const (
	ResourceOrder    = "order"
	ResourceBatch    = "batch"
	ResourceStock    = "stock"
	ResourceSnapshot = "snapshot"
)

// Category constants for audit events.
const (
	CategorySales     = "sales"
	CategoryKitchen   = "kitchen"
	CategoryPayment   = "payment"
	CategoryInventory = "inventory"
	CategorySystem    = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
