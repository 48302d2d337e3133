package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/erazemk/premik/internal/model"
	"github.com/erazemk/premik/internal/movement"
	"github.com/erazemk/premik/internal/store"
)

// MovementsHandler handles movement recording and ledger queries.
type MovementsHandler struct {
	DB *sql.DB
}

type validateScanRequest struct {
	RFIDTag string          `json:"rfid_tag"`
	Action  movement.Action `json:"action"`
}

// ValidateScan handles POST /api/movements/validate: the scan-time soft
// check an operator terminal runs while building up a batch.
func (h *MovementsHandler) ValidateScan(w http.ResponseWriter, r *http.Request) {
	var req validateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RFIDTag == "" {
		jsonError(w, http.StatusBadRequest, "rfid_tag required")
		return
	}

	check, err := movement.ValidateScan(r.Context(), h.DB, req.RFIDTag, req.Action)
	if err != nil {
		var verr *movement.ValidationError
		if errors.As(err, &verr) {
			jsonError(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to validate scan")
		return
	}
	jsonResponse(w, http.StatusOK, check)
}

// Submit handles POST /api/movements: records a whole batch atomically.
func (h *MovementsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var batch movement.Batch
	if err := decodeJSON(r, &batch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := movement.Submit(r.Context(), h.DB, batch, claims.UserID)
	if err != nil {
		var (
			verr *movement.ValidationError
			cerr *movement.ConflictError
			ierr *movement.IntegrityError
		)
		switch {
		case errors.As(err, &verr):
			jsonError(w, http.StatusUnprocessableEntity, verr.Error())
		case errors.As(err, &cerr):
			jsonError(w, http.StatusConflict, cerr.Error())
		case errors.As(err, &ierr):
			jsonError(w, http.StatusInternalServerError, ierr.Error())
		default:
			jsonError(w, http.StatusInternalServerError, "failed to record movement")
		}
		return
	}

	jsonResponse(w, http.StatusCreated, result)
}

// List handles GET /api/movements with optional batch_id and direction
// filters, newest first.
func (h *MovementsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.MovementFilter{
		BatchID:   r.URL.Query().Get("batch_id"),
		Direction: r.URL.Query().Get("direction"),
	}
	if v := r.URL.Query().Get("inventory_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid inventory_id")
			return
		}
		filter.InventoryID = id
	}
	if filter.Direction != "" &&
		filter.Direction != model.DirectionIn && filter.Direction != model.DirectionOut {
		jsonError(w, http.StatusBadRequest, "invalid direction")
		return
	}

	events, err := store.ListMovementEvents(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list movements")
		return
	}
	if events == nil {
		events = []model.MovementEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}
