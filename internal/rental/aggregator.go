// Package rental derives per-item rental periods and costs from the
// movement ledger. It is a read-only projection: aggregation never writes.
package rental

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// Entry is one rental period: an outbound transfer and, if the item came
// back, the inbound event that closed it.
type Entry struct {
	InventoryID  int64             `json:"inventory_id"`
	RFIDTag      string            `json:"rfid_tag"`
	TypeCode     string            `json:"type_code"`
	BatchID      string            `json:"batch_id"`
	Location     model.LocationRef `json:"location"`
	LocationName string            `json:"location_name"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	// Open means no inbound event has closed the period yet; End is then
	// the report cutoff.
	Open bool            `json:"open"`
	Days int64           `json:"days"`
	Rate decimal.Decimal `json:"rate"`
	Cost decimal.Decimal `json:"cost"`
}

// Summary is the full rental report as of a cutoff.
type Summary struct {
	Entries   []Entry         `json:"entries"`
	OpenCount int             `json:"open_count"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Report computes rental periods and costs from the ledger as of the
// cutoff. Every (batch, item) outbound pair starts exactly one rental
// period no matter how many outbound rows technically exist for it; the
// earliest row is the representative. The period ends at the first inbound
// event carrying the same batch id, or stays open until the cutoff.
//
// Costs are computed from the rate snapshot frozen on each event, so
// editing a rate table never changes historical totals. Only events whose
// snapshot is zero (no rate entry existed at transfer time) consult the
// live table, as a best-effort backfill.
func Report(ctx context.Context, db *sql.DB, until time.Time) (*Summary, error) {
	outs, err := store.OutEvents(ctx, db, until)
	if err != nil {
		return nil, err
	}

	// One representative outbound event per (batch, item).
	type periodKey struct {
		batchID     string
		inventoryID int64
	}
	seen := make(map[periodKey]bool, len(outs))
	var periods []model.MovementEvent
	var batchIDs []string
	for _, e := range outs {
		key := periodKey{e.BatchID, e.InventoryID}
		if seen[key] {
			continue
		}
		seen[key] = true
		periods = append(periods, e)
		batchIDs = append(batchIDs, e.BatchID)
	}

	ins, err := store.InEventsForBatches(ctx, db, batchIDs)
	if err != nil {
		return nil, err
	}

	// Earliest closing inbound event per (batch, item).
	closedAt := make(map[periodKey]time.Time, len(ins))
	for _, e := range ins {
		if e.RecordedAt.After(until) {
			continue
		}
		key := periodKey{e.BatchID, e.InventoryID}
		if _, ok := closedAt[key]; !ok {
			closedAt[key] = e.RecordedAt
		}
	}

	// Resolve location names for the report in one pass.
	var refs []model.LocationRef
	for _, e := range periods {
		refs = append(refs, e.To)
	}
	names, err := store.LocationNames(ctx, db, refs)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalCost: decimal.Zero}
	for _, e := range periods {
		entry := Entry{
			InventoryID: e.InventoryID,
			RFIDTag:     e.RFIDTag,
			TypeCode:    e.TypeCode,
			BatchID:     e.BatchID,
			Location:    e.To,
			Start:       e.RecordedAt,
		}

		if name, ok := names[e.To]; ok {
			entry.LocationName = name
		} else {
			entry.LocationName = "Unknown"
		}

		if end, ok := closedAt[periodKey{e.BatchID, e.InventoryID}]; ok && !end.Before(e.RecordedAt) {
			entry.End = end
		} else {
			entry.End = until
			entry.Open = true
			summary.OpenCount++
		}

		entry.Days = billableDays(entry.Start, entry.End)
		entry.Rate, err = rateFor(ctx, db, e)
		if err != nil {
			return nil, err
		}
		entry.Cost = entry.Rate.Mul(decimal.NewFromInt(entry.Days))
		summary.TotalCost = summary.TotalCost.Add(entry.Cost)
		summary.Entries = append(summary.Entries, entry)
	}

	return summary, nil
}

// rateFor returns the frozen snapshot rate for an event. A zero snapshot
// (no rate entry at transfer time) falls back to the live table so a rate
// added later can still price the period.
func rateFor(ctx context.Context, db *sql.DB, e model.MovementEvent) (decimal.Decimal, error) {
	if !e.RateSnapshot.IsZero() {
		return e.RateSnapshot, nil
	}
	if e.To.Space == model.SpaceCustomer {
		rate, found, err := store.GetRate(ctx, db, e.To.ID, e.TypeCode)
		if err != nil {
			return decimal.Zero, err
		}
		if found {
			return rate, nil
		}
	}
	return e.RateSnapshot, nil
}

// billableDays rounds a rental period up to whole days, minimum one.
func billableDays(start, end time.Time) int64 {
	if !end.After(start) {
		return 1
	}
	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
