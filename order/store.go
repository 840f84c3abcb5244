package order

import "context"

// Store persists a tenant's orders. Saves replace the tenant's full set,
// so a removed order disappears from storage on the next save.
type Store interface {
	LoadOrders(ctx context.Context, tenantID string) ([]*Order, error)
	SaveOrders(ctx context.Context, tenantID string, orders []*Order) error
}
