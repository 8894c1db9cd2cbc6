package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintwell/mintwell-server/internal/store"
)

type fakeUserStore struct {
	byID    map[uuid.UUID]*store.User
	byEmail map[string]*store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*store.User),
		byEmail: make(map[string]*store.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, email, passwordHash string) (*store.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, store.ErrDuplicateEmail
	}
	u := &store.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*store.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeResetCodeStore struct {
	codes map[uuid.UUID]*store.ResetCode
}

func newFakeResetCodeStore() *fakeResetCodeStore {
	return &fakeResetCodeStore{codes: make(map[uuid.UUID]*store.ResetCode)}
}

func (f *fakeResetCodeStore) Upsert(_ context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	f.codes[userID] = &store.ResetCode{UserID: userID, CodeHash: codeHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeResetCodeStore) Get(_ context.Context, userID uuid.UUID) (*store.ResetCode, error) {
	rc, ok := f.codes[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rc, nil
}

func (f *fakeResetCodeStore) Delete(_ context.Context, userID uuid.UUID) error {
	delete(f.codes, userID)
	return nil
}

type captureSender struct {
	email string
	code  string
}

func (c *captureSender) SendResetCode(_ context.Context, email, code string) error {
	c.email = email
	c.code = code
	return nil
}

func testService(t *testing.T) (*Service, *fakeUserStore, *fakeResetCodeStore, *captureSender) {
	t.Helper()
	tokens, err := NewTokenProvider([]byte("test-secret"), 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	users := newFakeUserStore()
	codes := newFakeResetCodeStore()
	sender := &captureSender{}
	return NewService(users, codes, tokens, sender), users, codes, sender
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	got, pair, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestRegisterWeakPassword(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	_, _, err := svc.Register(context.Background(), "ada@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "ada@example.com", "battery staple")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ada@example.com", password: "battery staple"},
		{name: "unknown email", email: "ghost@example.com", password: "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	svc, users, _, _ := testService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token must not work as a refresh token.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Deleted accounts cannot refresh.
	delete(users.byID, user.ID)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	svc, _, _, sender := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "ada@example.com"))
	require.Len(t, sender.code, resetCodeLength)
	assert.Equal(t, "ada@example.com", sender.email)

	require.NoError(t, svc.VerifyResetCode(ctx, "ada@example.com", sender.code))
	require.NoError(t, svc.ResetPassword(ctx, "ada@example.com", sender.code, "battery staple"))

	// Old password no longer works, new one does, code is consumed.
	_, _, err = svc.Login(ctx, "ada@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ada@example.com", "battery staple")
	assert.NoError(t, err)
	err = svc.ResetPassword(ctx, "ada@example.com", sender.code, "third password")
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _, codes, sender := testService(t)
	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, sender.code)
	assert.Empty(t, codes.codes)
}

func TestResetCodeExpiry(t *testing.T) {
	t.Parallel()

	svc, _, _, sender := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "ada@example.com"))

	svc.now = func() time.Time { return time.Now().Add(resetCodeTTL + time.Minute) }
	err = svc.VerifyResetCode(ctx, "ada@example.com", sender.code)
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestResetCodeWrongCode(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "ada@example.com"))

	err = svc.VerifyResetCode(ctx, "ada@example.com", "000000x")
	assert.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := testService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "correct horse", "battery staple"))
	_, _, err = svc.Login(ctx, "ada@example.com", "battery staple")
	assert.NoError(t, err)
}
