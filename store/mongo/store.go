package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	bistrostore "github.com/xraph/bistro/store"
)

// Collection name constants.
const (
	colOrders  = "bistro_orders"
	colBatches = "bistro_batches"
)

// compile-time interface check
var _ bistrostore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all bistro collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bistro/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Order Store ====================

func (s *Store) LoadOrders(ctx context.Context, tenantID string) ([]*order.Order, error) {
	var models []orderModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil && !isNoDocuments(err) {
		return nil, fmt.Errorf("bistro/mongo: load orders: %w", err)
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bistro/mongo: %w", err)
		}
		result[i] = o
	}
	return result, nil
}

// SaveOrders replaces the tenant's orders with the given set.
func (s *Store) SaveOrders(ctx context.Context, tenantID string, orders []*order.Order) error {
	for _, o := range orders {
		if o.TenantID != tenantID {
			return fmt.Errorf("bistro/mongo: save order %s: %w", o.ID, order.ErrTenantMismatch)
		}
	}

	if _, err := s.mdb.NewDelete((*orderModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bistro/mongo: clear orders: %w", err)
	}
	for _, o := range orders {
		if _, err := s.mdb.NewInsert(toOrderModel(o)).Exec(ctx); err != nil {
			return fmt.Errorf("bistro/mongo: insert order %s: %w", o.ID, err)
		}
	}
	return nil
}

// ==================== Inventory Store ====================

func (s *Store) LoadInventory(ctx context.Context, tenantID string) ([]*inventory.Batch, error) {
	var models []batchModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil && !isNoDocuments(err) {
		return nil, fmt.Errorf("bistro/mongo: load inventory: %w", err)
	}

	result := make([]*inventory.Batch, len(models))
	for i := range models {
		b, err := fromBatchModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bistro/mongo: %w", err)
		}
		result[i] = b
	}
	return result, nil
}

// SaveInventory replaces the tenant's batches, keeping their order.
func (s *Store) SaveInventory(ctx context.Context, tenantID string, batches []*inventory.Batch) error {
	for _, b := range batches {
		if b.TenantID != tenantID {
			return fmt.Errorf("bistro/mongo: save batch %s: %w", b.ID, inventory.ErrTenantMismatch)
		}
	}

	if _, err := s.mdb.NewDelete((*batchModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx); err != nil {
		return fmt.Errorf("bistro/mongo: clear inventory: %w", err)
	}
	for i, b := range batches {
		if _, err := s.mdb.NewInsert(toBatchModel(b, i)).Exec(ctx); err != nil {
			return fmt.Errorf("bistro/mongo: insert batch %s: %w", b.ID, err)
		}
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bistro collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colOrders: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colBatches: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "position", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "item_ref", Value: 1}, {Key: "received_at", Value: 1}}},
		},
	}
}
