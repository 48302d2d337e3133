package store

import (
	"context"
	"testing"

	"github.com/erazemk/premik/internal/db"
	"github.com/erazemk/premik/internal/model"
)

func TestCreateAndGetGate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	warehouse, _ := CreateLocation(ctx, database, "Main warehouse")
	ref := model.LocationRef{Space: model.SpaceBase, ID: warehouse.ID}

	gate, err := CreateGate(ctx, database, "Dock 1", ref, model.GateTypeDock)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}
	if gate.Location != ref {
		t.Errorf("expected location %s, got %s", ref, gate.Location)
	}
	if gate.Type != model.GateTypeDock {
		t.Errorf("expected type 'dock', got %q", gate.Type)
	}
}

func TestCreateGateAtCustomerLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	customer, _ := CreateCustomer(ctx, database, "Acme")
	site, _ := CreateCustomerLocation(ctx, database, customer.ID, "Store")
	ref := model.LocationRef{Space: model.SpaceCustomer, ID: site.ID}

	gate, err := CreateGate(ctx, database, "Store portal", ref, model.GateTypePortal)
	if err != nil {
		t.Fatalf("CreateGate: %v", err)
	}

	got, _ := GetGate(ctx, database, gate.ID)
	if got.Location.Space != model.SpaceCustomer {
		t.Errorf("expected customer-space location, got %q", got.Location.Space)
	}
}

func TestCreateGateRejectsInvalidLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateGate(ctx, database, "Nowhere", model.LocationRef{}, model.GateTypeDock)
	if err == nil {
		t.Error("expected rejection of a zero location ref")
	}
}

func TestSoftDeleteGate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	warehouse, _ := CreateLocation(ctx, database, "Main warehouse")
	ref := model.LocationRef{Space: model.SpaceBase, ID: warehouse.ID}

	gate, _ := CreateGate(ctx, database, "Dock 1", ref, model.GateTypeDock)
	DeleteGate(ctx, database, gate.ID)

	gates, _ := ListGates(ctx, database)
	if len(gates) != 0 {
		t.Errorf("expected 0 gates after soft delete, got %d", len(gates))
	}
}

func TestLocationNamesAcrossSpaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	warehouse, _ := CreateLocation(ctx, database, "Main warehouse")
	customer, _ := CreateCustomer(ctx, database, "Acme")
	site, _ := CreateCustomerLocation(ctx, database, customer.ID, "Store")

	baseRef := model.LocationRef{Space: model.SpaceBase, ID: warehouse.ID}
	siteRef := model.LocationRef{Space: model.SpaceCustomer, ID: site.ID}
	ghostRef := model.LocationRef{Space: model.SpaceCustomer, ID: 999}

	names, err := LocationNames(ctx, database, []model.LocationRef{baseRef, siteRef, ghostRef})
	if err != nil {
		t.Fatalf("LocationNames: %v", err)
	}
	if names[baseRef] != "Main warehouse" {
		t.Errorf("expected base name, got %q", names[baseRef])
	}
	if names[siteRef] != "Store" {
		t.Errorf("expected customer name, got %q", names[siteRef])
	}
	if _, ok := names[ghostRef]; ok {
		t.Error("unresolvable refs should be absent from the result")
	}
}
