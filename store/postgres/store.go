package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	bistrostore "github.com/xraph/bistro/store"
)

// compile-time interface check
var _ bistrostore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bistro/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bistro/postgres: migration failed: %w", err)
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
	err := s.pg.NewSelect(&models).
		Where("tenant_id = $1", tenantID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("bistro/postgres: load orders: %w", err)
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bistro/postgres: %w", err)
		}
		result[i] = o
	}
	return result, nil
}

// SaveOrders replaces the tenant's orders with the given set in one
// transaction; on failure the previous set is kept.
func (s *Store) SaveOrders(ctx context.Context, tenantID string, orders []*order.Order) error {
	models := make([]orderModel, len(orders))
	for i, o := range orders {
		if o.TenantID != tenantID {
			return fmt.Errorf("bistro/postgres: save order %s: %w", o.ID, order.ErrTenantMismatch)
		}
		m, err := toOrderModel(o)
		if err != nil {
			return fmt.Errorf("bistro/postgres: save order %s: %w", o.ID, err)
		}
		models[i] = *m
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("bistro/postgres: begin save orders: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.NewDelete((*orderModel)(nil)).
		Where("tenant_id = $1", tenantID).
		Exec(ctx); err != nil {
		return fmt.Errorf("bistro/postgres: clear orders: %w", err)
	}
	if len(models) > 0 {
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bistro/postgres: insert orders: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bistro/postgres: commit orders: %w", err)
	}
	return nil
}

// ==================== Inventory Store ====================

func (s *Store) LoadInventory(ctx context.Context, tenantID string) ([]*inventory.Batch, error) {
	var models []batchModel
	err := s.pg.NewSelect(&models).
		Where("tenant_id = $1", tenantID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("bistro/postgres: load inventory: %w", err)
	}

	result := make([]*inventory.Batch, len(models))
	for i := range models {
		b, err := fromBatchModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bistro/postgres: %w", err)
		}
		result[i] = b
	}
	return result, nil
}

// SaveInventory replaces the tenant's batches, keeping their order, in one
// transaction; on failure the previous set is kept.
func (s *Store) SaveInventory(ctx context.Context, tenantID string, batches []*inventory.Batch) error {
	models := make([]batchModel, len(batches))
	for i, b := range batches {
		if b.TenantID != tenantID {
			return fmt.Errorf("bistro/postgres: save batch %s: %w", b.ID, inventory.ErrTenantMismatch)
		}
		models[i] = *toBatchModel(b, i)
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("bistro/postgres: begin save inventory: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.NewDelete((*batchModel)(nil)).
		Where("tenant_id = $1", tenantID).
		Exec(ctx); err != nil {
		return fmt.Errorf("bistro/postgres: clear inventory: %w", err)
	}
	if len(models) > 0 {
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bistro/postgres: insert inventory: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bistro/postgres: commit inventory: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
