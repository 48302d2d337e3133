package movement

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// ScanItem is one scanned item within a batch submission.
type ScanItem struct {
	InventoryID int64  `json:"inventory_id"`
	Remark      string `json:"remark,omitempty"`
}

// Batch is one submit action: a set of items moved together through one
// gate from one location to another.
type Batch struct {
	Action Action            `json:"action"`
	GateID int64             `json:"gate_id"`
	From   model.LocationRef `json:"from"`
	To     model.LocationRef `json:"to"`
	Items  []ScanItem        `json:"items"`
}

// ItemResult reports the outcome for one item of a submitted batch.
type ItemResult struct {
	InventoryID int64  `json:"inventory_id"`
	RFIDTag     string `json:"rfid_tag"`
	EventID     int64  `json:"event_id"`
	BatchID     string `json:"batch_id"`
	Status      string `json:"status"`
}

// Result is the outcome of a successful batch submission.
type Result struct {
	// BatchID is the shared batch id for outbound submissions. Inbound
	// submissions inherit batch ids per item; see Items.
	BatchID  string       `json:"batch_id,omitempty"`
	Items    []ItemResult `json:"items"`
	Warnings []Warning    `json:"warnings,omitempty"`
	// Anomalies counts inbound items that had no prior outbound event to
	// inherit a batch from. Such items get a fresh batch id instead of
	// failing, so the count is surfaced to keep the drift observable.
	Anomalies int `json:"anomalies,omitempty"`
}

// itemPlan is the per-item write plan computed during validation.
type itemPlan struct {
	item       *model.Item
	nextStatus string
	rate       decimal.Decimal
	batchID    string
	remark     string
	inherited  bool
}

// ScanCheck is the result of a scan-time soft validation.
type ScanCheck struct {
	Item       *model.Item `json:"item"`
	NextStatus string      `json:"next_status"`
	Warning    string      `json:"warning,omitempty"`
}

// ValidateScan checks a single scanned tag against the state machine
// without writing anything. It backs the real-time feedback loop while the
// operator is still accumulating a batch; Submit re-validates everything
// against fresh state.
func ValidateScan(ctx context.Context, db *sql.DB, rfidTag string, action Action) (*ScanCheck, error) {
	if !action.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown action %q", action)}
	}

	item, err := store.GetItemByTag(ctx, db, rfidTag)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &ValidationError{RFIDTag: rfidTag, Reason: "unknown RFID tag"}
	}

	next, warning, err := Transition(item.Status, action)
	if err != nil {
		return nil, &ValidationError{InventoryID: item.ID, RFIDTag: item.RFIDTag, Reason: err.Error()}
	}

	return &ScanCheck{Item: item, NextStatus: next, Warning: warning}, nil
}

// Submit validates and records a movement batch. The whole batch is one
// transaction: either every item gets its ledger row and registry update,
// or nothing is written. Validation runs to completion before the first
// write, so a rejected batch never grows the ledger partially.
func Submit(ctx context.Context, db *sql.DB, b Batch, actorID int64) (*Result, error) {
	if err := validateBatch(b); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result := &Result{}

	// Outbound submissions share one fresh batch id across all items.
	var sharedBatchID string
	if b.Action == ActionOut {
		sharedBatchID = uuid.NewString()
		result.BatchID = sharedBatchID
	}

	// Pass 1: validate every item against its persisted status and compute
	// the write plan. No writes happen until the whole batch checks out.
	plans := make([]itemPlan, 0, len(b.Items))
	for _, scan := range b.Items {
		plan, warning, err := planItem(ctx, tx, b, scan, sharedBatchID)
		if err != nil {
			return nil, err
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, Warning{
				InventoryID: plan.item.ID,
				RFIDTag:     plan.item.RFIDTag,
				Reason:      warning,
			})
		}
		if !plan.inherited && b.Action != ActionOut {
			result.Anomalies++
			slog.Warn("inbound scan has no prior outbound event, assigning fresh batch",
				"inventory_id", plan.item.ID, "rfid_tag", plan.item.RFIDTag, "action", b.Action)
		}
		plans = append(plans, plan)
	}

	// Pass 2: write ledger rows and registry updates.
	now := time.Now().UTC()
	for _, plan := range plans {
		event := &model.MovementEvent{
			InventoryID:  plan.item.ID,
			Direction:    b.Action.Direction(),
			GateID:       b.GateID,
			From:         b.From,
			To:           b.To,
			RateSnapshot: plan.rate,
			RecordedBy:   &actorID,
			RecordedAt:   now,
			BatchID:      plan.batchID,
			Remark:       plan.remark,
		}

		eventID, err := store.InsertMovementEvent(ctx, tx, event)
		if err != nil {
			return nil, &IntegrityError{InventoryID: plan.item.ID, Op: "ledger append", Err: err}
		}

		// Compare-and-swap on the status read during validation. Zero rows
		// means another session moved the item after our read; the batch
		// rolls back rather than writing an event inconsistent with the
		// registry.
		res, err := tx.ExecContext(ctx,
			`UPDATE inventory_items
			 SET status = ?, last_scan_time = ?, last_scan_gate = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND status = ? AND deleted_at IS NULL`,
			plan.nextStatus, now, b.GateID, plan.item.ID, plan.item.Status,
		)
		if err != nil {
			return nil, &IntegrityError{InventoryID: plan.item.ID, Op: "registry update", Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, &IntegrityError{InventoryID: plan.item.ID, Op: "registry update", Err: err}
		}
		if affected == 0 {
			return nil, &ConflictError{InventoryID: plan.item.ID, RFIDTag: plan.item.RFIDTag}
		}

		result.Items = append(result.Items, ItemResult{
			InventoryID: plan.item.ID,
			RFIDTag:     plan.item.RFIDTag,
			EventID:     eventID,
			BatchID:     plan.batchID,
			Status:      plan.nextStatus,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	return result, nil
}

// validateBatch performs the structural checks that need no database access.
func validateBatch(b Batch) error {
	if !b.Action.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unknown action %q", b.Action)}
	}
	if len(b.Items) == 0 {
		return &ValidationError{Reason: "no items scanned"}
	}
	if b.GateID <= 0 {
		return &ValidationError{Reason: "no gate selected"}
	}
	if !b.From.Valid() || !b.To.Valid() {
		return &ValidationError{Reason: "missing source or destination location"}
	}
	if b.From == b.To {
		return &ValidationError{Reason: "source and destination locations are the same"}
	}

	seen := make(map[int64]bool, len(b.Items))
	for _, scan := range b.Items {
		if scan.InventoryID <= 0 {
			return &ValidationError{Reason: "invalid inventory id in batch"}
		}
		if seen[scan.InventoryID] {
			return &ValidationError{InventoryID: scan.InventoryID, Reason: "scanned twice in one batch"}
		}
		seen[scan.InventoryID] = true
	}
	return nil
}

// planItem validates one item against its persisted status and computes
// its rate snapshot and batch id.
func planItem(ctx context.Context, tx *sql.Tx, b Batch, scan ScanItem, sharedBatchID string) (itemPlan, string, error) {
	item, err := store.GetItem(ctx, tx, scan.InventoryID)
	if err != nil {
		return itemPlan{}, "", err
	}
	if item == nil || item.DeletedAt != nil {
		return itemPlan{}, "", &ValidationError{InventoryID: scan.InventoryID, Reason: "unknown item"}
	}

	next, warning, err := Transition(item.Status, b.Action)
	if err != nil {
		return itemPlan{}, "", &ValidationError{InventoryID: item.ID, RFIDTag: item.RFIDTag, Reason: err.Error()}
	}

	rate, err := snapshotRate(ctx, tx, b, item.TypeCode)
	if err != nil {
		return itemPlan{}, "", err
	}

	plan := itemPlan{
		item:       item,
		nextStatus: next,
		rate:       rate,
		remark:     scan.Remark,
		inherited:  true,
	}

	if b.Action == ActionOut {
		plan.batchID = sharedBatchID
		return plan, warning, nil
	}

	// Inbound actions close out an earlier outbound transfer: each item
	// independently inherits the batch of its latest outbound event. A
	// missing prior event is tolerated (fresh id) so operators are never
	// blocked, but the caller counts it as an anomaly.
	latest, err := store.LatestOutEvent(ctx, tx, item.ID)
	if err != nil {
		return itemPlan{}, "", err
	}
	if latest != nil {
		plan.batchID = latest.BatchID
	} else {
		plan.batchID = uuid.NewString()
		plan.inherited = false
	}
	return plan, warning, nil
}

// snapshotRate captures the rental rate at transfer time from the rate
// table of the customer location involved in the movement. The snapshot is
// frozen on the event so later rate edits never change historical cost
// reports. A missing rate entry snapshots zero rather than failing.
func snapshotRate(ctx context.Context, tx *sql.Tx, b Batch, typeCode string) (decimal.Decimal, error) {
	var customerLocationID int64
	switch {
	case b.To.Space == model.SpaceCustomer:
		customerLocationID = b.To.ID
	case b.From.Space == model.SpaceCustomer:
		customerLocationID = b.From.ID
	default:
		return decimal.Zero, nil
	}

	rate, _, err := store.GetRate(ctx, tx, customerLocationID, typeCode)
	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}
