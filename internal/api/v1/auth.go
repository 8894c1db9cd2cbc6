package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintwell/mintwell-server/internal/auth"
	"github.com/mintwell/mintwell-server/internal/store"
)

func (rr *Routes) authRoutes(r chi.Router) {
	r.Post("/register", rr.register)
	r.Post("/login", rr.login)
	r.Post("/refresh", rr.refresh)
	r.Post("/forgot-password", rr.forgotPassword)
	r.Post("/verify-reset-code", rr.verifyResetCode)
	r.Post("/reset-password", rr.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(rr.cfg.Tokens))
		r.Post("/change-password", rr.changePassword)
	})
}

// CredentialsRequest is the body for register and login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and passkey login
type AuthResponse struct {
	User   *store.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// register handles POST /api/v1/auth/register
func (rr *Routes) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !rr.decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		rr.writeErrorResponse(w, "email is required", http.StatusBadRequest)
		return
	}

	user, tokens, err := rr.cfg.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, AuthResponse{User: user, Tokens: tokens})
}

// login handles POST /api/v1/auth/login
func (rr *Routes) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	user, tokens, err := rr.cfg.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, AuthResponse{User: user, Tokens: tokens})
}

// refresh handles POST /api/v1/auth/refresh
func (rr *Routes) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	tokens, err := rr.cfg.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, tokens)
}

// forgotPassword handles POST /api/v1/auth/forgot-password
func (rr *Routes) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		rr.writeErrorResponse(w, "email is required", http.StatusBadRequest)
		return
	}

	if err := rr.cfg.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	// Always the same response, whether or not the email is registered.
	rr.writeJSONResponse(w, map[string]string{"message": "if the email is registered, a reset code has been sent"})
}

// verifyResetCode handles POST /api/v1/auth/verify-reset-code
func (rr *Routes) verifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	if err := rr.cfg.Auth.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "code is valid"})
}

// resetPassword handles POST /api/v1/auth/reset-password
func (rr *Routes) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	if err := rr.cfg.Auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "password updated"})
}

// changePassword handles POST /api/v1/auth/change-password
func (rr *Routes) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !rr.decodeJSON(w, r, &req) {
		return
	}

	if err := rr.cfg.Auth.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, map[string]string{"message": "password updated"})
}
