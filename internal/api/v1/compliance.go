package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (rr *Routes) complianceRoutes(r chi.Router) {
	r.Get("/gdpr/export", rr.exportGDPR)
	r.Get("/gdpr/export/portable", rr.exportPortable)
	r.Delete("/gdpr/delete", rr.deleteUserData)
	r.Get("/dma/export", rr.exportDMA)
	r.Get("/audit-log", rr.auditLog)
}

// exportGDPR handles GET /api/v1/compliance/gdpr/export
func (rr *Routes) exportGDPR(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	bundle, err := rr.cfg.Compliance.ExportGDPR(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, bundle)
}

// exportPortable handles GET /api/v1/compliance/gdpr/export/portable
func (rr *Routes) exportPortable(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	bundle, err := rr.cfg.Compliance.ExportPortable(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, bundle)
}

// deleteUserData handles DELETE /api/v1/compliance/gdpr/delete
func (rr *Routes) deleteUserData(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	if err := rr.cfg.Compliance.Delete(r.Context(), id.UserID); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "account and associated data deleted"})
}

// exportDMA handles GET /api/v1/compliance/dma/export
func (rr *Routes) exportDMA(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	bundle, err := rr.cfg.Compliance.ExportDMA(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, bundle)
}

// auditLog handles GET /api/v1/compliance/audit-log
func (rr *Routes) auditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	entries, err := rr.cfg.Compliance.AuditLog(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, entries)
}
