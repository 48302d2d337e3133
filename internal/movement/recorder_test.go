package movement

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// fixture wires up the minimum master data a movement needs: a warehouse,
// a customer site with a rate table, a gate and an operator.
type fixture struct {
	db    *sql.DB
	actor int64
	base  model.LocationRef
	site  model.LocationRef
	site2 model.LocationRef
	gate  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	warehouse, err := store.CreateLocation(ctx, database, "Main warehouse")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	customer, err := store.CreateCustomer(ctx, database, "Acme")
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	site, err := store.CreateCustomerLocation(ctx, database, customer.ID, "Acme store")
	if err != nil {
		t.Fatalf("CreateCustomerLocation: %v", err)
	}
	site2, err := store.CreateCustomerLocation(ctx, database, customer.ID, "Acme depot")
	if err != nil {
		t.Fatalf("CreateCustomerLocation: %v", err)
	}

	if err := store.SetRate(ctx, database, site.ID, "TOY", decimal.NewFromInt(50)); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	baseRef := model.LocationRef{Space: model.SpaceBase, ID: warehouse.ID}
	gate, err := store.CreateGate(ctx, database, "Dock 1", baseRef, model.GateTypeDock)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}

	user, err := store.CreateUser(ctx, database, "operator", "hash", "operator")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return &fixture{
		db:    database,
		actor: user.ID,
		base:  baseRef,
		site:  model.LocationRef{Space: model.SpaceCustomer, ID: site.ID},
		site2: model.LocationRef{Space: model.SpaceCustomer, ID: site2.ID},
		gate:  gate.ID,
	}
}

func (f *fixture) item(t *testing.T, tag string) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), f.db, tag, "TOY", f.base.ID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func (f *fixture) submit(t *testing.T, action Action, from, to model.LocationRef, ids ...int64) *Result {
	t.Helper()
	b := Batch{Action: action, GateID: f.gate, From: from, To: to}
	for _, id := range ids {
		b.Items = append(b.Items, ScanItem{InventoryID: id})
	}
	result, err := Submit(context.Background(), f.db, b, f.actor)
	if err != nil {
		t.Fatalf("Submit(%s): %v", action, err)
	}
	return result
}

func TestSubmitOutbound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "TAG-001")

	result := f.submit(t, ActionOut, f.base, f.site, item.ID)

	if result.BatchID == "" {
		t.Error("expected a shared batch id for an outbound submission")
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item result, got %d", len(result.Items))
	}
	if result.Items[0].Status != model.StatusInTransit {
		t.Errorf("expected status in_transit, got %q", result.Items[0].Status)
	}

	got, _ := store.GetItem(ctx, f.db, item.ID)
	if got.Status != model.StatusInTransit {
		t.Errorf("registry not updated: status %q", got.Status)
	}
	if got.LastScanGate == nil || *got.LastScanGate != f.gate {
		t.Error("expected last scan gate to be recorded")
	}

	events, _ := store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: item.ID})
	if len(events) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(events))
	}
	e := events[0]
	if e.Direction != model.DirectionOut {
		t.Errorf("expected direction out, got %q", e.Direction)
	}
	if e.BatchID != result.BatchID {
		t.Errorf("event batch id %q does not match result %q", e.BatchID, result.BatchID)
	}
	if !e.RateSnapshot.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected rate snapshot 50, got %s", e.RateSnapshot)
	}
	if e.RecordedBy == nil || *e.RecordedBy != f.actor {
		t.Error("expected the submitting operator on the event")
	}
}

func TestSubmitSharesBatchAcrossItems(t *testing.T) {
	f := newFixture(t)
	a := f.item(t, "TAG-A")
	b := f.item(t, "TAG-B")

	result := f.submit(t, ActionOut, f.base, f.site, a.ID, b.ID)

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 item results, got %d", len(result.Items))
	}
	if result.Items[0].BatchID != result.Items[1].BatchID {
		t.Error("items of one outbound submission should share a batch id")
	}
}

func TestSubmitAtomicRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := f.item(t, "TAG-GOOD")
	bad := f.item(t, "TAG-BAD")

	// Put the second item in transit so the batch fails validation.
	f.submit(t, ActionOut, f.base, f.site, bad.ID)

	b := Batch{
		Action: ActionOut, GateID: f.gate, From: f.base, To: f.site,
		Items: []ScanItem{{InventoryID: good.ID}, {InventoryID: bad.ID}},
	}
	_, err := Submit(ctx, f.db, b, f.actor)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Nothing from the failed batch may reach the ledger or registry.
	events, _ := store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: good.ID})
	if len(events) != 0 {
		t.Errorf("expected no ledger rows for the valid item, got %d", len(events))
	}
	got, _ := store.GetItem(ctx, f.db, good.ID)
	if got.Status != model.StatusInStock {
		t.Errorf("valid item status changed to %q by a rejected batch", got.Status)
	}
}

func TestSubmitRejectsDuplicateScan(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "TAG-DUP")

	b := Batch{
		Action: ActionOut, GateID: f.gate, From: f.base, To: f.site,
		Items: []ScanItem{{InventoryID: item.ID}, {InventoryID: item.ID}},
	}
	_, err := Submit(context.Background(), f.db, b, f.actor)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitStructuralValidation(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "TAG-S")

	tests := []struct {
		name  string
		batch Batch
	}{
		{"empty batch", Batch{Action: ActionOut, GateID: f.gate, From: f.base, To: f.site}},
		{"no gate", Batch{Action: ActionOut, From: f.base, To: f.site, Items: []ScanItem{{InventoryID: item.ID}}}},
		{"same from and to", Batch{Action: ActionOut, GateID: f.gate, From: f.base, To: f.base, Items: []ScanItem{{InventoryID: item.ID}}}},
		{"unknown action", Batch{Action: "warp", GateID: f.gate, From: f.base, To: f.site, Items: []ScanItem{{InventoryID: item.ID}}}},
		{"missing location", Batch{Action: ActionOut, GateID: f.gate, To: f.site, Items: []ScanItem{{InventoryID: item.ID}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Submit(context.Background(), f.db, tt.batch, f.actor)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestFullRentalCycleKeepsBatchID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "TAG-CYCLE")

	out := f.submit(t, ActionOut, f.base, f.site, item.ID)
	f.submit(t, ActionReceive, f.base, f.site, item.ID)
	f.submit(t, ActionReturn, f.site, f.base, item.ID)
	in := f.submit(t, ActionIn, f.site, f.base, item.ID)

	if in.Anomalies != 0 {
		t.Errorf("expected no anomalies in a full cycle, got %d", in.Anomalies)
	}

	events, _ := store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: item.ID})
	if len(events) != 4 {
		t.Fatalf("expected 4 ledger rows, got %d", len(events))
	}
	for _, e := range events {
		if e.BatchID != out.BatchID {
			t.Errorf("event %d has batch %q, want %q", e.ID, e.BatchID, out.BatchID)
		}
	}

	got, _ := store.GetItem(ctx, f.db, item.ID)
	if got.Status != model.StatusInStock {
		t.Errorf("expected item back in stock, got %q", got.Status)
	}
}

func TestInboundWithoutOutboundIsAnomaly(t *testing.T) {
	f := newFixture(t)

	item := f.item(t, "TAG-GHOST")
	// Force a state the ledger cannot explain.
	_, err := f.db.Exec(`UPDATE inventory_items SET status = 'returned' WHERE id = ?`, item.ID)
	if err != nil {
		t.Fatalf("forcing status: %v", err)
	}

	result := f.submit(t, ActionIn, f.site, f.base, item.ID)

	if result.Anomalies != 1 {
		t.Errorf("expected 1 anomaly, got %d", result.Anomalies)
	}
	if result.Items[0].BatchID == "" {
		t.Error("expected a fresh batch id despite the missing outbound event")
	}
}

func TestCustomerTransferWarning(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "TAG-XFER")

	f.submit(t, ActionOut, f.base, f.site, item.ID)
	f.submit(t, ActionReceive, f.base, f.site, item.ID)

	// Moving a received item straight to another customer site is allowed
	// but flagged.
	result := f.submit(t, ActionOut, f.site, f.site2, item.ID)
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if result.Warnings[0].InventoryID != item.ID {
		t.Error("warning should identify the transferred item")
	}
}

func TestRateSnapshotFrozenAtSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.item(t, "TAG-R1")
	second := f.item(t, "TAG-R2")

	f.submit(t, ActionOut, f.base, f.site, first.ID)

	if err := store.SetRate(ctx, f.db, f.site.ID, "TOY", decimal.NewFromInt(80)); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	f.submit(t, ActionOut, f.base, f.site, second.ID)

	events, _ := store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: first.ID})
	if !events[0].RateSnapshot.Equal(decimal.NewFromInt(50)) {
		t.Errorf("earlier snapshot changed after rate edit: %s", events[0].RateSnapshot)
	}

	events, _ = store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: second.ID})
	if !events[0].RateSnapshot.Equal(decimal.NewFromInt(80)) {
		t.Errorf("new movement should pick up the edited rate, got %s", events[0].RateSnapshot)
	}
}

func TestMissingRateSnapshotsZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, f.db, "TAG-NORATE", "CHR", f.base.ID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	f.submit(t, ActionOut, f.base, f.site, item.ID)

	events, _ := store.ListMovementEvents(ctx, f.db, store.MovementFilter{InventoryID: item.ID})
	if !events[0].RateSnapshot.IsZero() {
		t.Errorf("expected zero snapshot for an unlisted type, got %s", events[0].RateSnapshot)
	}
}

func TestValidateScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t, "TAG-SCAN")

	check, err := ValidateScan(ctx, f.db, "TAG-SCAN", ActionOut)
	if err != nil {
		t.Fatalf("ValidateScan: %v", err)
	}
	if check.Item.ID != item.ID {
		t.Error("scan check should resolve the item by tag")
	}
	if check.NextStatus != model.StatusInTransit {
		t.Errorf("expected next status in_transit, got %q", check.NextStatus)
	}

	_, err = ValidateScan(ctx, f.db, "TAG-NOPE", ActionOut)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown tag, got %v", err)
	}

	_, err = ValidateScan(ctx, f.db, "TAG-SCAN", ActionReturn)
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for illegal action, got %v", err)
	}
}
