package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/store"
)

// GatesHandler handles scan gate endpoints.
type GatesHandler struct {
	DB *sql.DB
}

type gateRequest struct {
	Name     string            `json:"name"`
	Location model.LocationRef `json:"location"`
	Type     string            `json:"type"`
}

// List handles GET /api/gates.
func (h *GatesHandler) List(w http.ResponseWriter, r *http.Request) {
	gates, err := store.ListGates(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list gates")
		return
	}
	if gates == nil {
		gates = []model.Gate{}
	}
	jsonResponse(w, http.StatusOK, gates)
}

// Create handles POST /api/gates.
func (h *GatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || !req.Location.Valid() || !model.ValidGateType(req.Type) {
		jsonError(w, http.StatusBadRequest, "name, location and a valid type required")
		return
	}

	gate, err := store.CreateGate(r.Context(), h.DB, req.Name, req.Location, req.Type)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create gate")
		return
	}
	jsonResponse(w, http.StatusCreated, gate)
}

// Get handles GET /api/gates/{id}.
func (h *GatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gate id")
		return
	}

	gate, err := store.GetGate(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get gate")
		return
	}
	if gate == nil {
		jsonError(w, http.StatusNotFound, "gate not found")
		return
	}
	jsonResponse(w, http.StatusOK, gate)
}

// Update handles PUT /api/gates/{id}.
func (h *GatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gate id")
		return
	}

	var req gateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || !req.Location.Valid() || !model.ValidGateType(req.Type) {
		jsonError(w, http.StatusBadRequest, "name, location and a valid type required")
		return
	}

	if err := store.UpdateGate(r.Context(), h.DB, id, req.Name, req.Location, req.Type); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update gate")
		return
	}

	gate, _ := store.GetGate(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, gate)
}

// Delete handles DELETE /api/gates/{id}.
func (h *GatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid gate id")
		return
	}

	if err := store.DeleteGate(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete gate")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "gate deleted"})
}
