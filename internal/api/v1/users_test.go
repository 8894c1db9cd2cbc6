package v1_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintwell/mintwell-server/internal/store"
)

func TestCurrentUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "GET", "/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeBody[store.User](t, rec)
	assert.Equal(t, f.userID, user.ID)
	assert.Equal(t, testEmail, user.Email)
	// The password hash is never serialized.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterDeviceToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "POST", "/users/device-token", map[string]string{
		"token":    "apns-token-1",
		"platform": "ios",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	listed := f.do(t, "GET", "/users/device-tokens", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	devices := decodeBody[[]store.Device](t, listed)
	require.Len(t, devices, 1)
	assert.Equal(t, "apns-token-1", devices[0].Token)
	assert.Equal(t, "ios", devices[0].Platform)
}

func TestRegisterDeviceTokenValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing token", map[string]string{"platform": "ios"}},
		{"missing platform", map[string]string{"token": "abc"}},
		{"unknown platform", map[string]string{"token": "abc", "platform": "blackberry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "POST", "/users/device-token", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteDeviceToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reg := f.do(t, "POST", "/users/device-token", map[string]string{
		"token":    "fcm-token-9",
		"platform": "android",
	})
	require.Equal(t, http.StatusOK, reg.Code)

	rec := f.do(t, "DELETE", "/users/device-token/fcm-token-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	listed := f.do(t, "GET", "/users/device-tokens", nil)
	devices := decodeBody[[]store.Device](t, listed)
	assert.Empty(t, devices)
}

func TestDeleteUnknownDeviceToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "DELETE", "/users/device-token/never-registered", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
