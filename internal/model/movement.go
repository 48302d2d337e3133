package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementEvent is one immutable row of the custody ledger. Events are
// created once and never updated or deleted; the ledger is the only
// authority for where an item currently is. Item.DefaultLocationID is
// merely the fallback for items with no events yet.
type MovementEvent struct {
	ID           int64           `json:"id"`
	InventoryID  int64           `json:"inventory_id"`
	Direction    string          `json:"direction"`
	GateID       int64           `json:"gate_id"`
	From         LocationRef     `json:"from"`
	To           LocationRef     `json:"to"`
	RateSnapshot decimal.Decimal `json:"rate_snapshot"`
	RecordedBy   *int64          `json:"recorded_by,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
	BatchID      string          `json:"batch_id"`
	Remark       string          `json:"remark,omitempty"`

	// Joined fields (not always populated).
	RFIDTag  string `json:"rfid_tag,omitempty"`
	TypeCode string `json:"type_code,omitempty"`
	GateName string `json:"gate_name,omitempty"`
}

// Movement directions as stored on the ledger. Receive and return
// confirmations are recorded as inbound-side events; the distinction
// between them lives in the status transition, not the ledger row.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)
