package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T, now time.Time) *TokenProvider {
	t.Helper()
	p, err := NewTokenProvider([]byte("test-secret"), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)
	p.now = func() time.Time { return now }
	return p
}

func TestNewTokenProviderRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenProvider(nil, time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := testProvider(t, now)
	id := Identity{UserID: uuid.New(), Email: "ada@example.com"}

	pair, err := p.Issue(id)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), pair.ExpiresAt)

	got, err := p.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = p.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenUseNotInterchangeable(t *testing.T) {
	t.Parallel()

	p := testProvider(t, time.Now())
	pair, err := p.Issue(Identity{UserID: uuid.New(), Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = p.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := testProvider(t, issued)
	pair, err := p.Issue(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	p.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = p.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The refresh token outlives the access token.
	_, err = p.ValidateRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	p := testProvider(t, time.Now())
	pair, err := p.Issue(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	other, err := NewTokenProvider([]byte("other-secret"), time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	t.Parallel()

	p := testProvider(t, time.Now())
	_, err := p.ValidateAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
