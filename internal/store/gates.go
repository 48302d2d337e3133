package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// CreateGate creates a scan gate at a location.
func CreateGate(ctx context.Context, db *sql.DB, name string, location model.LocationRef, gateType string) (*model.Gate, error) {
	if !location.Valid() {
		return nil, fmt.Errorf("invalid gate location: %s", location)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO gates (name, location_space, location_id, type) VALUES (?, ?, ?, ?)`,
		name, location.Space, location.ID, gateType,
	)
	if err != nil {
		return nil, fmt.Errorf("creating gate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting gate id: %w", err)
	}

	return GetGate(ctx, db, id)
}

// GetGate returns a gate by ID.
func GetGate(ctx context.Context, db *sql.DB, id int64) (*model.Gate, error) {
	g := &model.Gate{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location_space, location_id, type, created_at, deleted_at
		 FROM gates WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Location.Space, &g.Location.ID, &g.Type, &g.CreatedAt, &g.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting gate: %w", err)
	}
	return g, nil
}

// ListGates returns all non-deleted gates.
func ListGates(ctx context.Context, db *sql.DB) ([]model.Gate, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, location_space, location_id, type, created_at, deleted_at
		 FROM gates WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing gates: %w", err)
	}
	defer rows.Close()

	var gates []model.Gate
	for rows.Next() {
		var g model.Gate
		if err := rows.Scan(&g.ID, &g.Name, &g.Location.Space, &g.Location.ID, &g.Type, &g.CreatedAt, &g.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning gate: %w", err)
		}
		gates = append(gates, g)
	}
	return gates, rows.Err()
}

// UpdateGate updates a gate's name, location and type.
func UpdateGate(ctx context.Context, db *sql.DB, id int64, name string, location model.LocationRef, gateType string) error {
	if !location.Valid() {
		return fmt.Errorf("invalid gate location: %s", location)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE gates SET name = ?, location_space = ?, location_id = ?, type = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, location.Space, location.ID, gateType, id,
	)
	if err != nil {
		return fmt.Errorf("updating gate: %w", err)
	}
	return nil
}

// DeleteGate soft-deletes a gate.
func DeleteGate(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE gates SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting gate: %w", err)
	}
	return nil
}
