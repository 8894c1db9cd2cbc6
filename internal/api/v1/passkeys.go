package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintwell/mintwell-server/internal/auth"
)

func (rr *Routes) passkeyRoutes(r chi.Router) {
	r.Post("/register/challenge", rr.passkeyRegisterChallenge)
	r.Post("/register/verify", rr.passkeyRegisterVerify)
	r.Get("/", rr.listPasskeys)
	r.Delete("/{credentialID}", rr.deletePasskey)
}

// passkeyLoginRoutes are mounted outside the authenticated group: a passkey
// login is how the caller obtains a token in the first place.
func (rr *Routes) passkeyLoginRoutes(r chi.Router) {
	r.Post("/challenge", rr.passkeyLoginChallenge)
	r.Post("/verify", rr.passkeyLoginVerify)
}

// CeremonyResponse carries WebAuthn ceremony options plus the server-side
// session ID the client must echo back on verify.
type CeremonyResponse struct {
	SessionID string `json:"session_id"`
	Options   any    `json:"options"`
}

// passkeyRegisterChallenge handles POST /api/v1/passkeys/register/challenge
func (rr *Routes) passkeyRegisterChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	creation, sessionID, err := rr.cfg.Passkeys.BeginRegistration(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, CeremonyResponse{SessionID: sessionID, Options: creation})
}

// passkeyRegisterVerify handles POST /api/v1/passkeys/register/verify
func (rr *Routes) passkeyRegisterVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		SessionID string          `json:"session_id"`
		Response  json.RawMessage `json:"response"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || len(req.Response) == 0 {
		rr.writeErrorResponse(w, "session_id and response are required", http.StatusBadRequest)
		return
	}

	credentialID, err := rr.cfg.Passkeys.FinishRegistration(r.Context(), id.UserID, req.SessionID, req.Response)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"credential_id": credentialID})
}

// listPasskeys handles GET /api/v1/passkeys
func (rr *Routes) listPasskeys(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	creds, err := rr.cfg.Passkeys.List(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, creds)
}

// deletePasskey handles DELETE /api/v1/passkeys/{credentialID}
func (rr *Routes) deletePasskey(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	credentialID := chi.URLParam(r, "credentialID")
	if err := rr.cfg.Passkeys.Delete(r.Context(), id.UserID, credentialID); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "passkey deleted"})
}

// passkeyLoginChallenge handles POST /api/v1/passkeys/authenticate/challenge.
// An empty email requests a discoverable (usernameless) login.
func (rr *Routes) passkeyLoginChallenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	assertion, sessionID, err := rr.cfg.Passkeys.BeginLogin(r.Context(), req.Email)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, CeremonyResponse{SessionID: sessionID, Options: assertion})
}

// passkeyLoginVerify handles POST /api/v1/passkeys/authenticate/verify
func (rr *Routes) passkeyLoginVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string          `json:"session_id"`
		Response  json.RawMessage `json:"response"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" || len(req.Response) == 0 {
		rr.writeErrorResponse(w, "session_id and response are required", http.StatusBadRequest)
		return
	}

	user, err := rr.cfg.Passkeys.FinishLogin(r.Context(), req.SessionID, req.Response)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	tokens, err := rr.cfg.Tokens.Issue(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, AuthResponse{User: user, Tokens: tokens})
}
