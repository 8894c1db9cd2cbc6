package passkey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// SessionKind distinguishes registration ceremonies from login ceremonies
// so a session started for one cannot finish the other.
type SessionKind string

const (
	SessionKindRegistration SessionKind = "registration"
	SessionKindLogin        SessionKind = "login"
)

// defaultSessionTTL bounds how long a ceremony may stay open.
const defaultSessionTTL = 5 * time.Minute

// ErrSessionNotFound is returned for unknown, expired or kind-mismatched
// ceremony sessions.
var ErrSessionNotFound = errors.New("passkey session not found or expired")

type storedSession struct {
	kind      SessionKind
	userID    uuid.UUID
	data      webauthn.SessionData
	expiresAt time.Time
}

// SessionStore holds in-flight ceremony state in memory. Sessions are
// single-use and expire after ttl.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]storedSession
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a SessionStore. A non-positive ttl falls back to
// the default.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]storedSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put stores ceremony state and returns the new session ID.
func (s *SessionStore) Put(kind SessionKind, userID uuid.UUID, data webauthn.SessionData) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.sessions[id] = storedSession{
		kind:      kind,
		userID:    userID,
		data:      data,
		expiresAt: s.now().Add(s.ttl),
	}
	return id, nil
}

// Take removes and returns the session, enforcing kind and expiry.
func (s *SessionStore) Take(id string, kind SessionKind) (uuid.UUID, webauthn.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.kind != kind || s.now().After(sess.expiresAt) {
		delete(s.sessions, id)
		return uuid.Nil, webauthn.SessionData{}, ErrSessionNotFound
	}
	delete(s.sessions, id)
	return sess.userID, sess.data, nil
}

func (s *SessionStore) evictExpiredLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
