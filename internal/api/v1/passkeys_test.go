package v1_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/mintwell/mintwell-server/internal/api/v1"
	"github.com/mintwell/mintwell-server/internal/store"
)

func TestPasskeyRegisterChallenge(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "POST", "/passkeys/register/challenge", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ceremony := decodeBody[v1.CeremonyResponse](t, rec)
	assert.NotEmpty(t, ceremony.SessionID)
	assert.NotNil(t, ceremony.Options)
}

func TestPasskeyRegisterVerifyRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "POST", "/passkeys/register/verify", map[string]any{
		"session_id": "",
		"response":   map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasskeyRegisterVerifyUnknownSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "POST", "/passkeys/register/verify", map[string]any{
		"session_id": "no-such-session",
		"response":   map[string]any{"id": "x"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasskeyLoginChallengeDiscoverable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// No email requests a usernameless ceremony; no token is needed.
	rec := f.doAnon(t, "POST", "/passkeys/authenticate/challenge", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	ceremony := decodeBody[v1.CeremonyResponse](t, rec)
	assert.NotEmpty(t, ceremony.SessionID)
}

func TestPasskeyLoginChallengeUnknownEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.doAnon(t, "POST", "/passkeys/authenticate/challenge", map[string]string{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPasskeyLoginVerifyUnknownSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.doAnon(t, "POST", "/passkeys/authenticate/verify", map[string]any{
		"session_id": "expired-or-bogus",
		"response":   map[string]any{"id": "x"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListPasskeysEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "GET", "/passkeys", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	creds := decodeBody[[]store.PasskeyCredential](t, rec)
	assert.Empty(t, creds)
}

func TestDeletePasskeyNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "DELETE", "/passkeys/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
