// Package v1 provides the REST API handlers for the mintwell backend.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/auth"
	"github.com/mintwell/mintwell-server/internal/compliance"
	"github.com/mintwell/mintwell-server/internal/passkey"
	"github.com/mintwell/mintwell-server/internal/provider"
	"github.com/mintwell/mintwell-server/internal/service"
	"github.com/mintwell/mintwell-server/internal/store"
	"github.com/mintwell/mintwell-server/internal/sync"
	"github.com/mintwell/mintwell-server/internal/tax"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// AccountLister lists a user's synced accounts.
type AccountLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.Account, error)
}

// TransactionLister pages through a user's transactions.
type TransactionLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Transaction, error)
}

// DeviceStore manages push-notification device registrations.
type DeviceStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, token, platform string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.Device, error)
	Delete(ctx context.Context, userID uuid.UUID, token string) error
}

// UserGetter loads user records.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
}

// Config holds the dependencies for the v1 API routes
type Config struct {
	SyncHealth   service.SyncHealthService
	Providers    *provider.Registry
	Auth         *auth.Service
	Tokens       *auth.TokenProvider
	Passkeys     *passkey.Service
	Engine       *sync.Engine
	Compliance   *compliance.Service
	Tax          *tax.Service
	Accounts     AccountLister
	Transactions TransactionLister
	Devices      DeviceStore
	Users        UserGetter

	// Readiness reports whether the server can reach its dependencies.
	Readiness func(ctx context.Context) error
}

// Routes defines the routes for the v1 API with dependency injection
type Routes struct {
	cfg Config
}

// NewRoutes creates a new Routes instance with the provided dependencies
func NewRoutes(cfg Config) *Routes {
	return &Routes{cfg: cfg}
}

// Router creates the v1 API router. Auth endpoints and passkey login are
// public; everything else requires a bearer token.
func Router(cfg Config) http.Handler {
	routes := NewRoutes(cfg)

	r := chi.NewRouter()

	r.Route("/auth", routes.authRoutes)
	r.Route("/passkeys/authenticate", routes.passkeyLoginRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Tokens))

		r.Route("/sync/health", routes.syncHealthRoutes)
		r.Route("/providers", routes.providerRoutes)
		r.Route("/passkeys", routes.passkeyRoutes)
		r.Route("/transactions", routes.transactionRoutes)
		r.Get("/accounts", routes.listAccounts)
		r.Route("/compliance", routes.complianceRoutes)
		r.Route("/tax", routes.taxRoutes)
		r.Route("/users", routes.userRoutes)
	})

	return r
}

// identity returns the authenticated identity, or writes a 401 and returns
// false. The auth middleware guarantees presence on protected routes.
func (rr *Routes) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		rr.writeErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	return id, true
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func (rr *Routes) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}

// writeServiceError maps domain errors onto the API error taxonomy.
func (rr *Routes) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidResetCode):
		rr.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, passkey.ErrLoginFailed),
		errors.Is(err, passkey.ErrSessionNotFound):
		rr.writeErrorResponse(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, provider.ErrUnknownProvider):
		rr.writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicateEmail):
		rr.writeErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sync.ErrNoHealthyProvider):
		rr.writeErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, sync.ErrReauthRequired):
		rr.writeErrorResponse(w, err.Error(), http.StatusBadGateway)
	default:
		logger.Errorf("Internal error: %v", err)
		rr.writeErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}
