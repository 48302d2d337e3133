package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: index ledger rows by direction for the rental report,
	// which scans outbound events only.
	`CREATE INDEX IF NOT EXISTS idx_movement_events_direction
	     ON movement_events(direction, recorded_at)`,
}

// Migrate ensures the schema exists and applies all migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
