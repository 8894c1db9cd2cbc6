package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mintwell/mintwell-server/pkg/logger"
)

func (rr *Routes) taxRoutes(r chi.Router) {
	r.Get("/export/csv", rr.taxExportCSV)
	r.Get("/export/json", rr.taxExportJSON)
	r.Get("/summary", rr.taxSummary)
}

// taxExportCSV handles GET /api/v1/tax/export/csv?year=
func (rr *Routes) taxExportCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}
	year, ok := rr.taxYear(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"tax-export-%d.csv\"", year))
	if err := rr.cfg.Tax.WriteCSV(r.Context(), w, id.UserID, year); err != nil {
		// Headers are already out; all we can do is log.
		logger.Errorf("Failed to write tax CSV export: %v", err)
	}
}

// taxExportJSON handles GET /api/v1/tax/export/json?year=
func (rr *Routes) taxExportJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}
	year, ok := rr.taxYear(w, r)
	if !ok {
		return
	}

	export, err := rr.cfg.Tax.ExportJSON(r.Context(), id.UserID, year)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, export)
}

// taxSummary handles GET /api/v1/tax/summary?year=
func (rr *Routes) taxSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}
	year, ok := rr.taxYear(w, r)
	if !ok {
		return
	}

	summary, err := rr.cfg.Tax.Summarize(r.Context(), id.UserID, year)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, summary)
}

func (rr *Routes) taxYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		rr.writeErrorResponse(w, "year query parameter is required", http.StatusBadRequest)
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		rr.writeErrorResponse(w, "year must be a four-digit year", http.StatusBadRequest)
		return 0, false
	}
	return year, true
}
