package model

import "time"

// Item represents a single tracked rental item (bin/pallet), identified by
// its RFID tag. Status and last-scan fields are mutated only as a side
// effect of a successful movement write; items are never deleted in normal
// operation (soft delete exists for admin cleanup only).
type Item struct {
	ID                int64      `json:"id"`
	RFIDTag           string     `json:"rfid_tag"`
	TypeCode          string     `json:"type_code"`
	Status            string     `json:"status"`
	DefaultLocationID int64      `json:"default_location_id"`
	LastScanTime      *time.Time `json:"last_scan_time,omitempty"`
	LastScanGate      *int64     `json:"last_scan_gate,omitempty"`
	PhotoMime         string     `json:"photo_mime,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	DefaultLocationName string `json:"default_location_name,omitempty"`
	LastScanGateName    string `json:"last_scan_gate_name,omitempty"`
}

// Item statuses. An item is in_stock at base, in_transit after an outbound
// scan, received once the customer confirms arrival, and returned once the
// customer marks it for pickup.
const (
	StatusInStock   = "in_stock"
	StatusInTransit = "in_transit"
	StatusReceived  = "received"
	StatusReturned  = "returned"
)

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	switch s {
	case StatusInStock, StatusInTransit, StatusReceived, StatusReturned:
		return true
	}
	return false
}
