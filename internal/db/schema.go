package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// movement_events is append-only: rows are inserted by batch submission and
// never updated or deleted. Rates are stored as TEXT and parsed with
// shopspring/decimal so snapshots survive exactly as written.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'operator' CHECK (role IN ('admin', 'manager', 'operator')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS customers (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS customer_locations (
    id          INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL REFERENCES customers(id),
    name        TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS customer_location_rates (
    customer_location_id INTEGER NOT NULL REFERENCES customer_locations(id),
    type_code            TEXT NOT NULL,
    rate                 TEXT NOT NULL,
    PRIMARY KEY (customer_location_id, type_code)
);

CREATE TABLE IF NOT EXISTS gates (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    location_space TEXT NOT NULL DEFAULT 'base' CHECK (location_space IN ('base', 'customer')),
    location_id    INTEGER NOT NULL,
    type           TEXT NOT NULL DEFAULT 'dock' CHECK (type IN ('dock', 'portal', 'handheld')),
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME
);

CREATE TABLE IF NOT EXISTS inventory_items (
    id                  INTEGER PRIMARY KEY,
    rfid_tag            TEXT NOT NULL,
    type_code           TEXT NOT NULL CHECK (length(type_code) = 3),
    status              TEXT NOT NULL DEFAULT 'in_stock'
                        CHECK (status IN ('in_stock', 'in_transit', 'received', 'returned')),
    default_location_id INTEGER NOT NULL REFERENCES locations(id),
    last_scan_time      DATETIME,
    last_scan_gate      INTEGER REFERENCES gates(id),
    photo               BLOB,
    photo_mime          TEXT,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at          DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_items_rfid_tag_active
    ON inventory_items(rfid_tag) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS movement_events (
    id             INTEGER PRIMARY KEY,
    inventory_id   INTEGER NOT NULL REFERENCES inventory_items(id),
    direction      TEXT NOT NULL CHECK (direction IN ('in', 'out')),
    gate_id        INTEGER NOT NULL REFERENCES gates(id),
    from_space     TEXT NOT NULL CHECK (from_space IN ('base', 'customer')),
    from_location  INTEGER NOT NULL,
    to_space       TEXT NOT NULL CHECK (to_space IN ('base', 'customer')),
    to_location    INTEGER NOT NULL,
    rate_snapshot  TEXT NOT NULL DEFAULT '0',
    recorded_by    INTEGER REFERENCES users(id),
    recorded_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    batch_id       TEXT NOT NULL,
    remark         TEXT
);

CREATE INDEX IF NOT EXISTS idx_movement_events_inventory
    ON movement_events(inventory_id, recorded_at);

CREATE INDEX IF NOT EXISTS idx_movement_events_batch
    ON movement_events(batch_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
