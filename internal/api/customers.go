package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// CustomersHandler handles customer and customer-location endpoints,
// including per-location rental rate tables.
type CustomersHandler struct {
	DB *sql.DB
}

type customerRequest struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type customerLocationRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := store.ListCustomers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.DB, req.Name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create customer")
		return
	}
	jsonResponse(w, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// Update handles PUT /api/customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	if err := store.UpdateCustomer(r.Context(), h.DB, id, req.Name, req.Status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}

	customer, _ := store.GetCustomer(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	if err := store.DeleteCustomer(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete customer")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}

// ListLocations handles GET /api/customers/{id}/locations.
func (h *CustomersHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	locations, err := store.ListCustomerLocations(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list customer locations")
		return
	}
	if locations == nil {
		locations = []model.CustomerLocation{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// CreateLocation handles POST /api/customers/{id}/locations.
func (h *CustomersHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req customerLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}

	location, err := store.CreateCustomerLocation(r.Context(), h.DB, id, req.Name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create customer location")
		return
	}
	jsonResponse(w, http.StatusCreated, location)
}

// GetLocation handles GET /api/customer-locations/{id}, rate table included.
func (h *CustomersHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer location id")
		return
	}

	location, err := store.GetCustomerLocation(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get customer location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "customer location not found")
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

// UpdateLocation handles PUT /api/customer-locations/{id}.
func (h *CustomersHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer location id")
		return
	}

	var req customerLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateCustomerLocation(r.Context(), h.DB, id, req.Name); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update customer location")
		return
	}

	location, _ := store.GetCustomerLocation(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, location)
}

// DeleteLocation handles DELETE /api/customer-locations/{id}.
func (h *CustomersHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer location id")
		return
	}

	if err := store.DeleteCustomerLocation(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete customer location")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer location deleted"})
}

// GetRates handles GET /api/customer-locations/{id}/rates.
func (h *CustomersHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer location id")
		return
	}

	rates, err := store.GetRateTable(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get rate table")
		return
	}
	jsonResponse(w, http.StatusOK, rates)
}

// PutRates handles PUT /api/customer-locations/{id}/rates: replaces the
// whole table. Rates only apply to movements recorded after the change;
// existing ledger snapshots keep their frozen values.
func (h *CustomersHandler) PutRates(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer location id")
		return
	}

	var table map[string]decimal.Decimal
	if err := decodeJSON(r, &table); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for typeCode, rate := range table {
		if len(typeCode) != 3 {
			jsonError(w, http.StatusBadRequest, "type codes must be 3 characters")
			return
		}
		if rate.IsNegative() {
			jsonError(w, http.StatusBadRequest, "rates must not be negative")
			return
		}
	}

	location, err := store.GetCustomerLocation(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check customer location")
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "customer location not found")
		return
	}

	if err := store.ReplaceRateTable(r.Context(), h.DB, id, table); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update rate table")
		return
	}

	rates, _ := store.GetRateTable(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, rates)
}
