package rental

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

type fixture struct {
	db    *sql.DB
	base  model.LocationRef
	site  model.LocationRef
	gate  int64
	count int
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

	baseRef := model.LocationRef{Space: model.SpaceBase, ID: warehouse.ID}
	gate, err := store.CreateGate(ctx, database, "Dock 1", baseRef, model.GateTypeDock)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}

	return &fixture{
		db:   database,
		base: baseRef,
		site: model.LocationRef{Space: model.SpaceCustomer, ID: site.ID},
		gate: gate.ID,
	}
}

func (f *fixture) item(t *testing.T) *model.Item {
	t.Helper()
	f.count++
	item, err := store.CreateItem(context.Background(), f.db, fmt.Sprintf("TAG-%03d", f.count), "TOY", f.base.ID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func (f *fixture) event(t *testing.T, itemID int64, direction, batchID string, rate decimal.Decimal, at time.Time) {
	t.Helper()
	from, to := f.base, f.site
	if direction == model.DirectionIn {
		from, to = f.site, f.base
	}
	_, err := store.InsertMovementEvent(context.Background(), f.db, &model.MovementEvent{
		InventoryID:  itemID,
		Direction:    direction,
		GateID:       f.gate,
		From:         from,
		To:           to,
		RateSnapshot: rate,
		RecordedAt:   at,
		BatchID:      batchID,
	})
	if err != nil {
		t.Fatalf("InsertMovementEvent: %v", err)
	}
}

func TestReportClosedPeriod(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()
	rate := decimal.NewFromInt(50)

	// Out for 3 days, then back.
	f.event(t, item.ID, model.DirectionOut, "batch-1", rate, now.Add(-5*24*time.Hour))
	f.event(t, item.ID, model.DirectionIn, "batch-1", decimal.Zero, now.Add(-2*24*time.Hour))

	summary, err := Report(context.Background(), f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(summary.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(summary.Entries))
	}

	e := summary.Entries[0]
	if e.Open {
		t.Error("a closed period should not be open")
	}
	if e.Days != 3 {
		t.Errorf("expected 3 billable days, got %d", e.Days)
	}
	if !e.Cost.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected cost 150, got %s", e.Cost)
	}
	if summary.OpenCount != 0 {
		t.Errorf("expected no open periods, got %d", summary.OpenCount)
	}
	if e.LocationName != "Acme store" {
		t.Errorf("expected location name from the directory, got %q", e.LocationName)
	}
}

func TestReportOpenPeriodEndsAtCutoff(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()

	f.event(t, item.ID, model.DirectionOut, "batch-1", decimal.NewFromInt(10), now.Add(-36*time.Hour))

	summary, err := Report(context.Background(), f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	e := summary.Entries[0]
	if !e.Open {
		t.Error("period without a closing event should be open")
	}
	if !e.End.Equal(now) {
		t.Errorf("open period should end at the cutoff, got %s", e.End)
	}
	// 36 hours rounds up to 2 billable days.
	if e.Days != 2 {
		t.Errorf("expected 2 billable days, got %d", e.Days)
	}
	if summary.OpenCount != 1 {
		t.Errorf("expected 1 open period, got %d", summary.OpenCount)
	}
}

func TestReportMinimumOneDay(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()

	// Out and back within the hour still bills one day.
	f.event(t, item.ID, model.DirectionOut, "batch-1", decimal.NewFromInt(10), now.Add(-time.Hour))
	f.event(t, item.ID, model.DirectionIn, "batch-1", decimal.Zero, now.Add(-30*time.Minute))

	summary, err := Report(context.Background(), f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if summary.Entries[0].Days != 1 {
		t.Errorf("expected minimum 1 billable day, got %d", summary.Entries[0].Days)
	}
}

func TestReportDeduplicatesPeriods(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()
	rate := decimal.NewFromInt(10)

	// Duplicate outbound rows for the same batch and item (double scan
	// slipping past a gate) must still produce a single period starting
	// at the earliest row.
	f.event(t, item.ID, model.DirectionOut, "batch-1", rate, now.Add(-48*time.Hour))
	f.event(t, item.ID, model.DirectionOut, "batch-1", rate, now.Add(-47*time.Hour))

	summary, err := Report(context.Background(), f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(summary.Entries) != 1 {
		t.Fatalf("expected 1 deduplicated entry, got %d", len(summary.Entries))
	}
	// 48 hours from the earliest row, so 2 billable days.
	if summary.Entries[0].Days != 2 {
		t.Errorf("expected the earliest row to represent the period, got %d days", summary.Entries[0].Days)
	}
}

func TestReportSeparatePeriodsPerBatch(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()
	rate := decimal.NewFromInt(10)

	// Two full rental cycles for the same item.
	f.event(t, item.ID, model.DirectionOut, "batch-1", rate, now.Add(-10*24*time.Hour))
	f.event(t, item.ID, model.DirectionIn, "batch-1", decimal.Zero, now.Add(-8*24*time.Hour))
	f.event(t, item.ID, model.DirectionOut, "batch-2", rate, now.Add(-4*24*time.Hour))

	summary, err := Report(context.Background(), f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(summary.Entries) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(summary.Entries))
	}
	if summary.OpenCount != 1 {
		t.Errorf("expected 1 open period, got %d", summary.OpenCount)
	}
	// 2 days closed + 4 days open at rate 10.
	if !summary.TotalCost.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected total cost 60, got %s", summary.TotalCost)
	}
}

func TestReportHistoricalCutoff(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)
	now := time.Now().UTC()

	f.event(t, item.ID, model.DirectionOut, "batch-1", decimal.NewFromInt(10), now.Add(-10*24*time.Hour))
	f.event(t, item.ID, model.DirectionIn, "batch-1", decimal.Zero, now.Add(-2*24*time.Hour))

	// As of 5 days ago the inbound event had not happened: the period is
	// open and billed up to the cutoff.
	cutoff := now.Add(-5 * 24 * time.Hour)
	summary, err := Report(context.Background(), f.db, cutoff)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	e := summary.Entries[0]
	if !e.Open {
		t.Error("period should be open as of the historical cutoff")
	}
	if e.Days != 5 {
		t.Errorf("expected 5 billable days, got %d", e.Days)
	}
}

func TestReportSnapshotSurvivesRateEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	now := time.Now().UTC()

	f.event(t, item.ID, model.DirectionOut, "batch-1", decimal.NewFromInt(50), now.Add(-24*time.Hour))

	// Editing the live table must not reprice the frozen snapshot.
	if err := store.SetRate(ctx, f.db, f.site.ID, "TOY", decimal.NewFromInt(999)); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	summary, err := Report(ctx, f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !summary.Entries[0].Rate.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected the frozen rate 50, got %s", summary.Entries[0].Rate)
	}
}

func TestReportBackfillsZeroSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	now := time.Now().UTC()

	// No rate entry existed at transfer time; adding one later prices the
	// period retroactively.
	f.event(t, item.ID, model.DirectionOut, "batch-1", decimal.Zero, now.Add(-24*time.Hour))
	if err := store.SetRate(ctx, f.db, f.site.ID, "TOY", decimal.NewFromInt(20)); err != nil {
		t.Fatalf("SetRate: %v", err)
	}

	summary, err := Report(ctx, f.db, now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !summary.Entries[0].Rate.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected live-table backfill of 20, got %s", summary.Entries[0].Rate)
	}
}
