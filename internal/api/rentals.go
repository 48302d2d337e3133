package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/premik/internal/rental"
)

// RentalsHandler handles the rental aggregation report.
type RentalsHandler struct {
	DB *sql.DB
}

// Report handles GET /api/rentals. An optional ?until=RFC3339 closes open
// periods at that point instead of now.
func (h *RentalsHandler) Report(w http.ResponseWriter, r *http.Request) {
	until := time.Now().UTC()
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid until timestamp (want RFC 3339)")
			return
		}
		until = t
	}

	summary, err := rental.Report(r.Context(), h.DB, until)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to build rental report")
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}
