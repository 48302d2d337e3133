// Package resolve answers "where is item X" by replaying the movement
// ledger. The item registry only carries a default location; the latest
// ledger event at or before the query time is the authority.
package resolve

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// UnknownName is returned when a resolved location id matches neither
// directory. Reports prefer a visible placeholder over a failed query.
const UnknownName = "Unknown"

// Resolved is one item's computed current location.
type Resolved struct {
	InventoryID  int64             `json:"inventory_id"`
	Location     model.LocationRef `json:"location"`
	LocationName string            `json:"location_name"`
	// FromLedger is false when the item has no movement events and the
	// default location was used instead.
	FromLedger bool `json:"from_ledger"`
	// MovedAt is the timestamp of the deciding event, zero for fallbacks.
	MovedAt time.Time `json:"moved_at,omitzero"`
}

// Locations resolves the current location of each item as of the cutoff
// (nil means "now"). For each item the most recent ledger event at or
// before the cutoff wins; items without events fall back to their default
// base location. Items that don't exist in the registry are omitted.
//
// Ordering is applied here, not delegated to the query: correctness must
// not depend on how the events happen to be fetched.
func Locations(ctx context.Context, db *sql.DB, ids []int64, at *time.Time) ([]Resolved, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	events, err := store.EventsForItems(ctx, db, ids, at)
	if err != nil {
		return nil, err
	}

	// Latest-event-wins, ties broken by the higher ledger id.
	latest := make(map[int64]model.MovementEvent, len(ids))
	for _, e := range events {
		cur, ok := latest[e.InventoryID]
		if !ok || e.RecordedAt.After(cur.RecordedAt) ||
			(e.RecordedAt.Equal(cur.RecordedAt) && e.ID > cur.ID) {
			latest[e.InventoryID] = e
		}
	}

	// Fallback to default locations for items the ledger never saw.
	var missing []int64
	for _, id := range ids {
		if _, ok := latest[id]; !ok {
			missing = append(missing, id)
		}
	}
	defaults, err := store.DefaultLocations(ctx, db, missing)
	if err != nil {
		return nil, err
	}

	// Collect every referenced location and resolve names in one go.
	var refs []model.LocationRef
	for _, e := range latest {
		refs = append(refs, e.To)
	}
	for _, locID := range defaults {
		refs = append(refs, model.LocationRef{Space: model.SpaceBase, ID: locID})
	}
	names, err := store.LocationNames(ctx, db, refs)
	if err != nil {
		return nil, err
	}

	results := make([]Resolved, 0, len(ids))
	for _, id := range ids {
		if e, ok := latest[id]; ok {
			results = append(results, Resolved{
				InventoryID:  id,
				Location:     e.To,
				LocationName: nameOr(names, e.To),
				FromLedger:   true,
				MovedAt:      e.RecordedAt,
			})
			continue
		}

		locID, ok := defaults[id]
		if !ok {
			// Not in the registry at all.
			continue
		}
		ref := model.LocationRef{Space: model.SpaceBase, ID: locID}
		results = append(results, Resolved{
			InventoryID:  id,
			Location:     ref,
			LocationName: nameOr(names, ref),
		})
	}
	return results, nil
}

// Location resolves a single item, returning nil if the item is unknown.
func Location(ctx context.Context, db *sql.DB, id int64, at *time.Time) (*Resolved, error) {
	results, err := Locations(ctx, db, []int64{id}, at)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func nameOr(names map[model.LocationRef]string, ref model.LocationRef) string {
	if name, ok := names[ref]; ok {
		return name
	}
	return UnknownName
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
