package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bistro store.
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
    lines          JSONB NOT NULL DEFAULT '[]',
    currency       TEXT NOT NULL DEFAULT '',
    vat_included   BOOLEAN NOT NULL DEFAULT TRUE,
    subtotal       BIGINT NOT NULL DEFAULT 0,
    vat_amount     BIGINT NOT NULL DEFAULT 0,
    total          BIGINT NOT NULL DEFAULT 0,
    payment_method TEXT NOT NULL DEFAULT '',
    payment_status TEXT NOT NULL DEFAULT 'paid',
    payments       JSONB NOT NULL DEFAULT '[]',
    status         TEXT NOT NULL DEFAULT 'new',
    completed_at   TIMESTAMPTZ,
    cancelled_at   TIMESTAMPTZ,
    realized_cost  BIGINT,
    shortfalls     JSONB NOT NULL DEFAULT '[]',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    position    INT NOT NULL DEFAULT 0,
    kind        TEXT NOT NULL DEFAULT 'menu_item',
    item_ref    TEXT NOT NULL,
    quantity    BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    unit_cost   BIGINT NOT NULL DEFAULT 0 CHECK (unit_cost >= 0),
    currency    TEXT NOT NULL DEFAULT '',
    received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
