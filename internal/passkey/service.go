// Package passkey implements WebAuthn registration and login ceremonies.
package passkey

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/config"
	"github.com/mintwell/mintwell-server/internal/store"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

// ErrLoginFailed is returned when an assertion cannot be validated.
var ErrLoginFailed = errors.New("passkey login failed")

// UserStore is the user lookup surface the passkey service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
}

// CredentialStore is the credential persistence surface.
type CredentialStore interface {
	Add(ctx context.Context, userID uuid.UUID, credentialID string, credential json.RawMessage) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.PasskeyCredential, error)
	Delete(ctx context.Context, userID uuid.UUID, credentialID string) error
}

// relyingParty is the subset of *webauthn.WebAuthn the service uses,
// extracted so tests can substitute ceremony outcomes.
type relyingParty interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	BeginDiscoverableLogin(opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidatePasskeyLogin(handler webauthn.DiscoverableUserHandler, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (webauthn.User, *webauthn.Credential, error)
}

// responseParser wraps the protocol package's response parsers.
type responseParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type protocolParser struct{}

func (protocolParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (protocolParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// Service runs WebAuthn ceremonies against the configured relying party.
type Service struct {
	rp       relyingParty
	parser   responseParser
	users    UserStore
	creds    CredentialStore
	sessions *SessionStore
}

// NewService creates a passkey Service from the relying-party config.
func NewService(cfg config.PasskeyConfig, users UserStore, creds CredentialStore) (*Service, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure webauthn: %w", err)
	}
	return &Service{
		rp:       wa,
		parser:   protocolParser{},
		users:    users,
		creds:    creds,
		sessions: NewSessionStore(defaultSessionTTL),
	}, nil
}

// BeginRegistration starts a registration ceremony for an authenticated
// user. Existing credentials are excluded so the authenticator does not
// re-register one it already holds.
func (s *Service) BeginRegistration(ctx context.Context, userID uuid.UUID) (*protocol.CredentialCreation, string, error) {
	waUser, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	opts := []webauthn.RegistrationOption{
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	}
	if len(waUser.credentials) > 0 {
		opts = append(opts, webauthn.WithExclusions(webauthn.Credentials(waUser.credentials).CredentialDescriptors()))
	}

	creation, sessionData, err := s.rp.BeginRegistration(waUser, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin registration: %w", err)
	}

	sessionID, err := s.sessions.Put(SessionKindRegistration, userID, *sessionData)
	if err != nil {
		return nil, "", err
	}
	return creation, sessionID, nil
}

// FinishRegistration validates the authenticator response and stores the
// new credential. It returns the base64url credential ID.
func (s *Service) FinishRegistration(ctx context.Context, userID uuid.UUID, sessionID string, response []byte) (string, error) {
	sessUserID, sessionData, err := s.sessions.Take(sessionID, SessionKindRegistration)
	if err != nil {
		return "", err
	}
	if sessUserID != userID {
		return "", ErrSessionNotFound
	}

	waUser, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}

	parsed, err := s.parser.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return "", fmt.Errorf("failed to parse credential response: %w", err)
	}
	credential, err := s.rp.CreateCredential(waUser, sessionData, parsed)
	if err != nil {
		return "", fmt.Errorf("failed to validate credential response: %w", err)
	}

	credJSON, err := json.Marshal(credential)
	if err != nil {
		return "", fmt.Errorf("failed to encode credential: %w", err)
	}
	credentialID := encodeCredentialID(credential.ID)
	if err := s.creds.Add(ctx, userID, credentialID, credJSON); err != nil {
		return "", err
	}

	logger.Infof("Registered passkey %s for user %s", credentialID, userID)
	return credentialID, nil
}

// BeginLogin starts a login ceremony. With an empty email it starts a
// discoverable (usernameless) ceremony.
func (s *Service) BeginLogin(ctx context.Context, email string) (*protocol.CredentialAssertion, string, error) {
	var (
		assertion   *protocol.CredentialAssertion
		sessionData *webauthn.SessionData
		userID      uuid.UUID
		err         error
	)

	if email == "" {
		assertion, sessionData, err = s.rp.BeginDiscoverableLogin()
	} else {
		var user *store.User
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, "", err
		}
		userID = user.ID

		var waUser *webAuthnUser
		waUser, err = s.loadUser(ctx, userID)
		if err != nil {
			return nil, "", err
		}
		assertion, sessionData, err = s.rp.BeginLogin(waUser)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin login: %w", err)
	}

	sessionID, err := s.sessions.Put(SessionKindLogin, userID, *sessionData)
	if err != nil {
		return nil, "", err
	}
	return assertion, sessionID, nil
}

// FinishLogin validates the assertion and returns the authenticated user.
func (s *Service) FinishLogin(ctx context.Context, sessionID string, response []byte) (*store.User, error) {
	_, sessionData, err := s.sessions.Take(sessionID, SessionKindLogin)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse assertion response: %w", err)
	}

	validated, _, err := s.rp.ValidatePasskeyLogin(s.discoverableHandler(ctx), sessionData, parsed)
	if err != nil {
		logger.Warnf("Passkey login rejected: %v", err)
		return nil, ErrLoginFailed
	}

	waUser, ok := validated.(*webAuthnUser)
	if !ok {
		return nil, ErrLoginFailed
	}
	return waUser.user, nil
}

// List returns the stored credentials for a user.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]store.PasskeyCredential, error) {
	return s.creds.ListByUser(ctx, userID)
}

// Delete removes one of the user's credentials.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, credentialID string) error {
	return s.creds.Delete(ctx, userID, credentialID)
}

func (s *Service) loadUser(ctx context.Context, userID uuid.UUID) (*webAuthnUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	creds, err := decodeCredentials(records)
	if err != nil {
		return nil, err
	}
	return &webAuthnUser{user: user, credentials: creds}, nil
}

// discoverableHandler maps the WebAuthn user handle back to a stored user.
func (s *Service) discoverableHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		userID, err := uuid.Parse(string(userHandle))
		if err != nil {
			return nil, fmt.Errorf("invalid user handle: %w", err)
		}
		return s.loadUser(ctx, userID)
	}
}

func encodeCredentialID(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
