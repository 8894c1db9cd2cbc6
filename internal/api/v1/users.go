package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (rr *Routes) userRoutes(r chi.Router) {
	r.Get("/me", rr.currentUser)
	r.Post("/device-token", rr.registerDeviceToken)
	r.Get("/device-tokens", rr.listDeviceTokens)
	r.Delete("/device-token/{token}", rr.deleteDeviceToken)
}

// currentUser handles GET /api/v1/users/me
func (rr *Routes) currentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	user, err := rr.cfg.Users.GetByID(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, user)
}

// registerDeviceToken handles POST /api/v1/users/device-token
func (rr *Routes) registerDeviceToken(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		rr.writeErrorResponse(w, "token is required", http.StatusBadRequest)
		return
	}
	switch req.Platform {
	case "ios", "android", "web":
	default:
		rr.writeErrorResponse(w, "platform must be one of ios, android, web", http.StatusBadRequest)
		return
	}

	if err := rr.cfg.Devices.Upsert(r.Context(), id.UserID, req.Token, req.Platform); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "device registered"})
}

// listDeviceTokens handles GET /api/v1/users/device-tokens
func (rr *Routes) listDeviceTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	devices, err := rr.cfg.Devices.ListByUser(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, devices)
}

// deleteDeviceToken handles DELETE /api/v1/users/device-token/{token}
func (rr *Routes) deleteDeviceToken(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	token := chi.URLParam(r, "token")
	if err := rr.cfg.Devices.Delete(r.Context(), id.UserID, token); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "device removed"})
}
