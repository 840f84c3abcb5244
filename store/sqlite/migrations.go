package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bistro store (SQLite).
var Migrations = migrate.NewGroup("bistro")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_bistro_orders",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bistro_orders (
    id             TEXT PRIMARY KEY,
    tenant_id      TEXT NOT NULL,
    table_label    TEXT NOT NULL DEFAULT '',
    customer_name  TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    lines          TEXT NOT NULL DEFAULT '[]',
    currency       TEXT NOT NULL DEFAULT '',
    vat_included   INTEGER NOT NULL DEFAULT 1,
    subtotal       INTEGER NOT NULL DEFAULT 0,
    vat_amount     INTEGER NOT NULL DEFAULT 0,
    total          INTEGER NOT NULL DEFAULT 0,
    payment_method TEXT NOT NULL DEFAULT '',
    payment_status TEXT NOT NULL DEFAULT 'paid',
    payments       TEXT NOT NULL DEFAULT '[]',
    status         TEXT NOT NULL DEFAULT 'new',
    completed_at   TEXT,
    cancelled_at   TEXT,
    realized_cost  INTEGER,
    shortfalls     TEXT NOT NULL DEFAULT '[]',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bistro_orders_tenant ON bistro_orders (tenant_id);
CREATE INDEX IF NOT EXISTS idx_bistro_orders_status ON bistro_orders (tenant_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bistro_orders`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_bistro_batches",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bistro_batches (
    id          TEXT PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    position    INTEGER NOT NULL DEFAULT 0,
    kind        TEXT NOT NULL DEFAULT 'menu_item',
    item_ref    TEXT NOT NULL,
    quantity    INTEGER NOT NULL DEFAULT 0,
    unit_cost   INTEGER NOT NULL DEFAULT 0,
    currency    TEXT NOT NULL DEFAULT '',
    received_at TEXT NOT NULL DEFAULT (datetime('now')),
    reference   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_bistro_batches_tenant ON bistro_batches (tenant_id, position);
CREATE INDEX IF NOT EXISTS idx_bistro_batches_item ON bistro_batches (tenant_id, item_ref, received_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bistro_batches`)
				return err
			},
		},
	)
}
