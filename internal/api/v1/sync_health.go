package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintwell/mintwell-server/internal/service"
)

func (rr *Routes) syncHealthRoutes(r chi.Router) {
	r.Get("/", rr.getSyncHealth)
	r.Post("/status", rr.updateSyncStatus)
	r.Post("/clear-errors", rr.clearSyncErrors)
}

// getSyncHealth handles GET /api/v1/sync/health
func (rr *Routes) getSyncHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	report, err := rr.cfg.SyncHealth.GetHealth(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, report)
}

// updateSyncStatus handles POST /api/v1/sync/health/status
func (rr *Routes) updateSyncStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	var upd service.StatusUpdate
	if !rr.decodeJSON(w, r, &upd) {
		return
	}

	report, err := rr.cfg.SyncHealth.UpdateStatus(r.Context(), id.UserID, upd)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, report)
}

// clearSyncErrors handles POST /api/v1/sync/health/clear-errors
func (rr *Routes) clearSyncErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	report, err := rr.cfg.SyncHealth.ClearErrors(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, report)
}
