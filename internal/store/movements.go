package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/model"
)

// MovementFilter narrows ledger queries. Zero values mean "no filter".
type MovementFilter struct {
	InventoryID int64
	BatchID     string
	Direction   string
}

// InsertMovementEvent appends one event to the ledger. Accepts a Querier
// so the movement recorder can call it inside its batch transaction.
// Events are immutable once written; there is no update or delete.
func InsertMovementEvent(ctx context.Context, q Querier, e *model.MovementEvent) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO movement_events
		 (inventory_id, direction, gate_id, from_space, from_location,
		  to_space, to_location, rate_snapshot, recorded_by, recorded_at, batch_id, remark)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.InventoryID, e.Direction, e.GateID, e.From.Space, e.From.ID,
		e.To.Space, e.To.ID, e.RateSnapshot.String(), e.RecordedBy, e.RecordedAt, e.BatchID, e.Remark,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting movement event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting movement event id: %w", err)
	}
	return id, nil
}

const movementColumns = `e.id, e.inventory_id, e.direction, e.gate_id,
	        e.from_space, e.from_location, e.to_space, e.to_location,
	        e.rate_snapshot, e.recorded_by, e.recorded_at, e.batch_id, e.remark,
	        i.rfid_tag, i.type_code, COALESCE(g.name, '') AS gate_name`

const movementJoins = ` FROM movement_events e
	 JOIN inventory_items i ON i.id = e.inventory_id
	 LEFT JOIN gates g ON g.id = e.gate_id`

func scanMovementEvents(rows *sql.Rows) ([]model.MovementEvent, error) {
	var events []model.MovementEvent
	for rows.Next() {
		var (
			e       model.MovementEvent
			rateStr string
			remark  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.InventoryID, &e.Direction, &e.GateID,
			&e.From.Space, &e.From.ID, &e.To.Space, &e.To.ID,
			&rateStr, &e.RecordedBy, &e.RecordedAt, &e.BatchID, &remark,
			&e.RFIDTag, &e.TypeCode, &e.GateName); err != nil {
			return nil, fmt.Errorf("scanning movement event: %w", err)
		}

		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing rate snapshot %q: %w", rateStr, err)
		}
		e.RateSnapshot = rate
		e.Remark = remark.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListMovementEvents returns ledger events newest first, optionally filtered.
func ListMovementEvents(ctx context.Context, db *sql.DB, f MovementFilter) ([]model.MovementEvent, error) {
	query := `SELECT ` + movementColumns + movementJoins + ` WHERE 1=1`
	var args []any

	if f.InventoryID > 0 {
		query += ` AND e.inventory_id = ?`
		args = append(args, f.InventoryID)
	}
	if f.BatchID != "" {
		query += ` AND e.batch_id = ?`
		args = append(args, f.BatchID)
	}
	if f.Direction != "" {
		query += ` AND e.direction = ?`
		args = append(args, f.Direction)
	}

	query += ` ORDER BY e.recorded_at DESC, e.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing movement events: %w", err)
	}
	defer rows.Close()

	return scanMovementEvents(rows)
}

// EventsForItems returns all ledger events for the given items, optionally
// limited to events at or before a cutoff. No ordering is promised; the
// location resolver applies its own ordering rule.
func EventsForItems(ctx context.Context, q Querier, ids []int64, until *time.Time) ([]model.MovementEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + movementColumns + movementJoins +
		` WHERE e.inventory_id IN (` + placeholders + `)`

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	if until != nil {
		query += ` AND e.recorded_at <= ?`
		args = append(args, *until)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events for items: %w", err)
	}
	defer rows.Close()

	return scanMovementEvents(rows)
}

// LatestOutEvent returns an item's most recent outbound event, or nil if
// the item has never gone out. Used to recover the batch an inbound
// (receive/return/check-in) event belongs to.
func LatestOutEvent(ctx context.Context, q Querier, inventoryID int64) (*model.MovementEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+movementColumns+movementJoins+`
		 WHERE e.inventory_id = ? AND e.direction = 'out'
		 ORDER BY e.recorded_at DESC, e.id DESC LIMIT 1`,
		inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying latest out event: %w", err)
	}
	defer rows.Close()

	events, err := scanMovementEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// OutEvents returns all outbound events recorded at or before the cutoff,
// oldest first. The rental aggregator consumes these.
func OutEvents(ctx context.Context, db *sql.DB, until time.Time) ([]model.MovementEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+movementColumns+movementJoins+`
		 WHERE e.direction = 'out' AND e.recorded_at <= ?
		 ORDER BY e.recorded_at ASC, e.id ASC`,
		until,
	)
	if err != nil {
		return nil, fmt.Errorf("querying out events: %w", err)
	}
	defer rows.Close()

	return scanMovementEvents(rows)
}

// InEventsForBatches returns inbound events whose batch id is one of the
// given batches, oldest first.
func InEventsForBatches(ctx context.Context, db *sql.DB, batchIDs []string) ([]model.MovementEvent, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batchIDs)), ",")
	args := make([]any, 0, len(batchIDs))
	for _, id := range batchIDs {
		args = append(args, id)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+movementColumns+movementJoins+`
		 WHERE e.direction = 'in' AND e.batch_id IN (`+placeholders+`)
		 ORDER BY e.recorded_at ASC, e.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying in events for batches: %w", err)
	}
	defer rows.Close()

	return scanMovementEvents(rows)
}
