package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (rr *Routes) providerRoutes(r chi.Router) {
	r.Get("/", rr.listProviders)
	r.Route("/{providerID}", func(r chi.Router) {
		r.Get("/health", rr.getProviderHealth)
		r.Post("/health", rr.updateProviderHealth)
		r.Post("/mark-stale", rr.markProviderStale)
		r.Post("/clear-stale", rr.clearProviderStale)
	})
}

// ProviderHealthUpdate is the body for POST /providers/{providerID}/health
type ProviderHealthUpdate struct {
	Healthy   bool   `json:"is_healthy"`
	Stale     bool   `json:"is_stale,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// listProviders handles GET /api/v1/providers
func (rr *Routes) listProviders(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}
	rr.writeJSONResponse(w, rr.cfg.Providers.List(id.UserID.String()))
}

// getProviderHealth handles GET /api/v1/providers/{providerID}/health
func (rr *Routes) getProviderHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	health, err := rr.cfg.Providers.Get(id.UserID.String(), chi.URLParam(r, "providerID"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, health)
}

// updateProviderHealth handles POST /api/v1/providers/{providerID}/health
func (rr *Routes) updateProviderHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	var upd ProviderHealthUpdate
	if !rr.decodeJSON(w, r, &upd) {
		return
	}

	health, err := rr.cfg.Providers.Update(id.UserID.String(), chi.URLParam(r, "providerID"),
		upd.Healthy, upd.Stale, upd.LastError)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, health)
}

// markProviderStale handles POST /api/v1/providers/{providerID}/mark-stale
func (rr *Routes) markProviderStale(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	health, err := rr.cfg.Providers.MarkStale(id.UserID.String(), chi.URLParam(r, "providerID"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, health)
}

// clearProviderStale handles POST /api/v1/providers/{providerID}/clear-stale
func (rr *Routes) clearProviderStale(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	health, err := rr.cfg.Providers.ClearStale(id.UserID.String(), chi.URLParam(r, "providerID"))
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, health)
}
