package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Location spaces. Movement events reference locations from two disjoint
// directories: base (warehouse-side) locations and customer locations.
// The space tag makes the lookup explicit instead of trying both
// directories and hoping ids never collide.
const (
	SpaceBase     = "base"
	SpaceCustomer = "customer"
)

// LocationRef identifies a location in one of the two location spaces.
type LocationRef struct {
	Space string `json:"space"`
	ID    int64  `json:"id"`
}

// Valid reports whether the reference has a known space and a positive id.
func (r LocationRef) Valid() bool {
	return (r.Space == SpaceBase || r.Space == SpaceCustomer) && r.ID > 0
}

// IsZero reports whether the reference is unset.
func (r LocationRef) IsZero() bool {
	return r.Space == "" && r.ID == 0
}

func (r LocationRef) String() string {
	return fmt.Sprintf("%s:%d", r.Space, r.ID)
}

// Location is a base (warehouse-side) location. Items belong to one of
// these when not in customer custody.
type Location struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Location statuses.
const (
	LocationStatusActive   = "active"
	LocationStatusInactive = "inactive"
)

// Customer is a rental customer owning one or more customer locations.
type Customer struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// CustomerLocation is a drop-off site belonging to a customer. Each carries
// a rate table mapping item type codes to a per-day rental rate.
type CustomerLocation struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	CustomerName string                     `json:"customer_name,omitempty"`
	RateTable    map[string]decimal.Decimal `json:"rate_table,omitempty"`
}

// Gate is a physical scan checkpoint. It is provenance metadata on a
// movement event and carries no behavior of its own.
type Gate struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Location  LocationRef `json:"location"`
	Type      string      `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}

// Gate types.
const (
	GateTypeDock   = "dock"
	GateTypePortal = "portal"
	GateTypeHand   = "handheld"
)

// ValidGateType reports whether t is a known gate type.
func ValidGateType(t string) bool {
	switch t {
	case GateTypeDock, GateTypePortal, GateTypeHand:
		return true
	}
	return false
}
