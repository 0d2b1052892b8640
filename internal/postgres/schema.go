package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup; every statement is idempotent.
//
// Status rows are soft-exited: a batch number may appear again once the
// previous row carries exited_at, so uniqueness only covers live rows.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id             BIGSERIAL PRIMARY KEY,
    customer_name  TEXT        NOT NULL DEFAULT '',
    status         TEXT        NOT NULL DEFAULT 'Pending',
    created_by     TEXT        NOT NULL DEFAULT '',
    updated_by     TEXT        NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cherry_inventory_status (
    id            BIGSERIAL PRIMARY KEY,
    batch_number  TEXT        NOT NULL,
    status        TEXT        NOT NULL DEFAULT 'Available'
                  CHECK (status IN ('Available', 'Reserved', 'Picked')),
    order_id      BIGINT      REFERENCES orders(id),
    exited_at     TIMESTAMPTZ,
    created_by    TEXT        NOT NULL DEFAULT '',
    updated_by    TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_cherry_inventory_status_live
    ON cherry_inventory_status(batch_number) WHERE exited_at IS NULL;

CREATE TABLE IF NOT EXISTS greenbeans_inventory_status (
    id            BIGSERIAL PRIMARY KEY,
    batch_number  TEXT        NOT NULL,
    status        TEXT        NOT NULL DEFAULT 'Available'
                  CHECK (status IN ('Available', 'Reserved', 'Picked')),
    order_id      BIGINT      REFERENCES orders(id),
    exited_at     TIMESTAMPTZ,
    created_by    TEXT        NOT NULL DEFAULT '',
    updated_by    TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_greenbeans_inventory_status_live
    ON greenbeans_inventory_status(batch_number) WHERE exited_at IS NULL;

CREATE TABLE IF NOT EXISTS cherry_inventory_movements (
    id             BIGSERIAL PRIMARY KEY,
    batch_number   TEXT        NOT NULL,
    movement_type  TEXT        NOT NULL CHECK (movement_type IN ('Reservation', 'Exit')),
    order_id       BIGINT      NOT NULL REFERENCES orders(id),
    moved_at       TIMESTAMPTZ NOT NULL,
    created_by     TEXT        NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_cherry_inventory_movements_batch
    ON cherry_inventory_movements(batch_number, moved_at);

CREATE TABLE IF NOT EXISTS greenbeans_inventory_movements (
    id             BIGSERIAL PRIMARY KEY,
    batch_number   TEXT        NOT NULL,
    movement_type  TEXT        NOT NULL CHECK (movement_type IN ('Reservation', 'Exit')),
    order_id       BIGINT      NOT NULL REFERENCES orders(id),
    moved_at       TIMESTAMPTZ NOT NULL,
    created_by     TEXT        NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_greenbeans_inventory_movements_batch
    ON greenbeans_inventory_movements(batch_number, moved_at);

CREATE TABLE IF NOT EXISTS order_items (
    order_id      BIGINT        NOT NULL REFERENCES orders(id),
    batch_number  TEXT          NOT NULL,
    product       TEXT          NOT NULL,
    quantity      NUMERIC(14,3) NOT NULL CHECK (quantity > 0),
    price         NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
    product_type  TEXT          NOT NULL CHECK (product_type IN ('cherry', 'greenbeans')),
    created_at    TIMESTAMPTZ   NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ   NOT NULL DEFAULT now(),
    PRIMARY KEY (order_id, batch_number)
);

CREATE TABLE IF NOT EXISTS transport_data (
    id              BIGSERIAL PRIMARY KEY,
    batch_number    TEXT          NOT NULL,
    order_id        BIGINT        NOT NULL REFERENCES orders(id),
    product_type    TEXT          NOT NULL,
    desa            TEXT          NOT NULL,
    kecamatan       TEXT          NOT NULL,
    kabupaten       TEXT          NOT NULL,
    cost            NUMERIC(14,2) NOT NULL,
    paid_to         TEXT          NOT NULL,
    farmer_id       TEXT,
    payment_method  TEXT          NOT NULL,
    bank_account    TEXT,
    bank_name       TEXT,
    created_by      TEXT          NOT NULL,
    created_at      TIMESTAMPTZ   NOT NULL DEFAULT now()
);
`

// Migrate applies the schema. Safe to call on every start.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: apply schema: %w", err)
	}
	return nil
}
