package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// CreateLocation creates a base (warehouse-side) location.
func CreateLocation(ctx context.Context, db *sql.DB, name string) (*model.Location, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO locations (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}

	return GetLocation(ctx, db, id)
}

// GetLocation returns a base location by ID.
func GetLocation(ctx context.Context, db *sql.DB, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, deleted_at FROM locations WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Status, &l.CreatedAt, &l.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// ListLocations returns all non-deleted base locations.
func ListLocations(ctx context.Context, db *sql.DB) ([]model.Location, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, status, created_at, deleted_at
		 FROM locations WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Status, &l.CreatedAt, &l.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// UpdateLocation updates a base location's name and status.
func UpdateLocation(ctx context.Context, db *sql.DB, id int64, name, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE locations SET name = ?, status = ? WHERE id = ? AND deleted_at IS NULL`,
		name, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}
	return nil
}

// DeleteLocation soft-deletes a base location.
func DeleteLocation(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE locations SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}

// LocationNames resolves human names for a set of location references,
// consulting the directory the space tag points to. References that match
// nothing are simply absent from the result; callers decide the fallback.
func LocationNames(ctx context.Context, q Querier, refs []model.LocationRef) (map[model.LocationRef]string, error) {
	names := make(map[model.LocationRef]string, len(refs))

	for _, ref := range refs {
		if _, ok := names[ref]; ok {
			continue
		}

		var (
			name  string
			query string
		)
		switch ref.Space {
		case model.SpaceBase:
			query = `SELECT name FROM locations WHERE id = ?`
		case model.SpaceCustomer:
			query = `SELECT name FROM customer_locations WHERE id = ?`
		default:
			continue
		}

		err := q.QueryRowContext(ctx, query, ref.ID).Scan(&name)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving name for %s: %w", ref, err)
		}
		names[ref] = name
	}

	return names, nil
}
