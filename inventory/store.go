package inventory

import "context"

// Store persists a tenant's batches. Saves replace the tenant's full set,
// exhausted batches included.
type Store interface {
	LoadInventory(ctx context.Context, tenantID string) ([]*Batch, error)
	SaveInventory(ctx context.Context, tenantID string, batches []*Batch) error
}
