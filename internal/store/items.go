package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/premik/internal/model"
)

// CreateItem registers a new tracked item. New items start in_stock at
// their default (base) location.
func CreateItem(ctx context.Context, db *sql.DB, rfidTag, typeCode string, defaultLocationID int64) (*model.Item, error) {
	if len(typeCode) != 3 {
		return nil, fmt.Errorf("type code must be exactly 3 characters, got %q", typeCode)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (rfid_tag, type_code, default_location_id) VALUES (?, ?, ?)`,
		rfidTag, typeCode, defaultLocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

const itemColumns = `i.id, i.rfid_tag, i.type_code, i.status, i.default_location_id,
	        i.last_scan_time, i.last_scan_gate, i.photo_mime,
	        i.created_at, i.updated_at, i.deleted_at,
	        l.name AS default_location_name, COALESCE(g.name, '') AS last_scan_gate_name`

const itemJoins = ` FROM inventory_items i
	 JOIN locations l ON l.id = i.default_location_id
	 LEFT JOIN gates g ON g.id = i.last_scan_gate`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var photoMime sql.NullString
	err := row.Scan(&item.ID, &item.RFIDTag, &item.TypeCode, &item.Status, &item.DefaultLocationID,
		&item.LastScanTime, &item.LastScanGate, &photoMime,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
		&item.DefaultLocationName, &item.LastScanGateName)
	if err != nil {
		return nil, err
	}
	item.PhotoMime = photoMime.String
	return item, nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemJoins+` WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemByTag returns a non-deleted item by its RFID tag. Tags are the
// natural key scans arrive with.
func GetItemByTag(ctx context.Context, q Querier, rfidTag string) (*model.Item, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+itemJoins+` WHERE i.rfid_tag = ? AND i.deleted_at IS NULL`, rfidTag,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by tag: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by status
// and/or type code.
func ListItems(ctx context.Context, db *sql.DB, status, typeCode string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + itemJoins + ` WHERE i.deleted_at IS NULL`
	var args []any

	if status != "" {
		query += ` AND i.status = ?`
		args = append(args, status)
	}
	if typeCode != "" {
		query += ` AND i.type_code = ?`
		args = append(args, typeCode)
	}
	query += ` ORDER BY i.rfid_tag`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's registry metadata. Status is deliberately
// not updatable here: it changes only through movement submission.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, rfidTag, typeCode string, defaultLocationID int64) error {
	if len(typeCode) != 3 {
		return fmt.Errorf("type code must be exactly 3 characters, got %q", typeCode)
	}

	_, err := db.ExecContext(ctx,
		`UPDATE inventory_items
		 SET rfid_tag = ?, type_code = ?, default_location_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		rfidTag, typeCode, defaultLocationID, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item. Ledger history referencing it is kept.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// DefaultLocations returns the default (base) location id for each of the
// given items. Items that don't exist are absent from the result.
func DefaultLocations(ctx context.Context, q Querier, ids []int64) (map[int64]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, default_location_id FROM inventory_items WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying default locations: %w", err)
	}
	defer rows.Close()

	defaults := make(map[int64]int64, len(ids))
	for rows.Next() {
		var itemID, locationID int64
		if err := rows.Scan(&itemID, &locationID); err != nil {
			return nil, fmt.Errorf("scanning default location: %w", err)
		}
		defaults[itemID] = locationID
	}
	return defaults, rows.Err()
}

// UpdateItemPhoto stores an item's photo.
func UpdateItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("updating item photo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking photo update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var (
		photo []byte
		mime  sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM inventory_items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
