package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/premik/internal/imaging"
	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/resolve"
	"github.com/erazemk/premik/internal/store"
)

// ItemsHandler handles inventory registry endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	RFIDTag           string `json:"rfid_tag"`
	TypeCode          string `json:"type_code"`
	DefaultLocationID int64  `json:"default_location_id"`
}

type updateItemRequest struct {
	RFIDTag           string `json:"rfid_tag"`
	TypeCode          string `json:"type_code"`
	DefaultLocationID int64  `json:"default_location_id"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, status, r.URL.Query().Get("type_code"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RFIDTag == "" || req.TypeCode == "" || req.DefaultLocationID <= 0 {
		jsonError(w, http.StatusBadRequest, "rfid_tag, type_code and default_location_id required")
		return
	}

	location, err := store.GetLocation(r.Context(), h.DB, req.DefaultLocationID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check location")
		return
	}
	if location == nil || location.DeletedAt != nil {
		jsonError(w, http.StatusBadRequest, "unknown default location")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.RFIDTag, req.TypeCode, req.DefaultLocationID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to create item (tag may be taken)")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Status is not updatable here: it
// only changes through movement submission.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RFIDTag == "" || req.TypeCode == "" || req.DefaultLocationID <= 0 {
		jsonError(w, http.StatusBadRequest, "rfid_tag, type_code and default_location_id required")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.RFIDTag, req.TypeCode, req.DefaultLocationID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// GetHistory handles GET /api/items/{id}/history: the item's full ledger,
// newest first.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	history, err := store.ListMovementEvents(r.Context(), h.DB, store.MovementFilter{InventoryID: id})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item history")
		return
	}
	if history == nil {
		history = []model.MovementEvent{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// GetLocation handles GET /api/items/{id}/location, optionally with
// ?at=RFC3339 for a historical answer.
func (h *ItemsHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	at, err := parseCutoff(r.URL.Query().Get("at"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid at timestamp (want RFC 3339)")
		return
	}

	resolved, err := resolve.Location(r.Context(), h.DB, id, at)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve location")
		return
	}
	if resolved == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, resolved)
}

type resolveRequest struct {
	InventoryIDs []int64 `json:"inventory_ids"`
	At           string  `json:"at,omitempty"`
}

// ResolveLocations handles POST /api/items/locations: bulk resolution for
// a set of items, as of now or a historical cutoff.
func (h *ItemsHandler) ResolveLocations(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.InventoryIDs) == 0 {
		jsonError(w, http.StatusBadRequest, "inventory_ids required")
		return
	}

	at, err := parseCutoff(req.At)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid at timestamp (want RFC 3339)")
		return
	}

	resolved, err := resolve.Locations(r.Context(), h.DB, req.InventoryIDs, at)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve locations")
		return
	}
	if resolved == nil {
		resolved = []resolve.Resolved{}
	}
	jsonResponse(w, http.StatusOK, resolved)
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateItemPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// parseCutoff parses an optional RFC 3339 cutoff. Empty means "now".
func parseCutoff(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
