package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/store"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

const (
	resetCodeLength = 6
	resetCodeTTL    = 15 * time.Minute
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidResetCode is returned when a reset code is wrong, expired
	// or was never issued.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ResetCodeStore is the persistence surface for password-reset codes.
type ResetCodeStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error
	Get(ctx context.Context, userID uuid.UUID) (*store.ResetCode, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// CodeSender delivers a reset code to the user, typically by email. The
// mail transport itself is outside this service.
type CodeSender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// Service implements registration, login and password lifecycle flows.
type Service struct {
	users  UserStore
	codes  ResetCodeStore
	tokens *TokenProvider
	sender CodeSender
	now    func() time.Time
}

// NewService creates an auth Service. sender may be nil, in which case
// reset codes are only logged (development mode).
func NewService(users UserStore, codes ResetCodeStore, tokens *TokenProvider, sender CodeSender) *Service {
	return &Service{
		users:  users,
		codes:  codes,
		tokens: tokens,
		sender: sender,
		now:    time.Now,
	}
}

// Register creates a new user and issues its first token pair.
func (s *Service) Register(ctx context.Context, email, password string) (*store.User, *TokenPair, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, nil, err
	}

	logger.Infof("Registered user %s", user.ID)
	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same error as a bad password so the endpoint does not leak
			// which emails are registered.
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	// Re-load the user so tokens are not refreshed for deleted accounts.
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.tokens.Issue(Identity{UserID: user.ID, Email: user.Email})
}

// ForgotPassword issues a reset code for the email. It succeeds silently
// for unknown emails so the endpoint does not leak registration state.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	codeHash, err := hashCode(code)
	if err != nil {
		return err
	}

	if err := s.codes.Upsert(ctx, user.ID, codeHash, s.now().Add(resetCodeTTL)); err != nil {
		return err
	}

	if s.sender != nil {
		if err := s.sender.SendResetCode(ctx, email, code); err != nil {
			return fmt.Errorf("failed to deliver reset code: %w", err)
		}
	} else {
		logger.Warnf("No code sender configured; reset code for %s not delivered", user.ID)
	}
	return nil
}

// VerifyResetCode checks a reset code without consuming it, so clients can
// validate user input before collecting the new password.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	_, _, err := s.lookupResetCode(ctx, email, code)
	return err
}

// ResetPassword consumes a valid reset code and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, _, err := s.lookupResetCode(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, user.ID); err != nil {
		logger.Errorf("Failed to delete consumed reset code for %s: %v", user.ID, err)
	}

	logger.Infof("Password reset completed for user %s", user.ID)
	return nil
}

// ChangePassword replaces the password for an authenticated user after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

func (s *Service) lookupResetCode(ctx context.Context, email, code string) (*store.User, *store.ResetCode, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidResetCode
		}
		return nil, nil, err
	}

	rc, err := s.codes.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidResetCode
		}
		return nil, nil, err
	}

	if s.now().After(rc.ExpiresAt) || !checkCode(rc.CodeHash, code) {
		return nil, nil, ErrInvalidResetCode
	}
	return user, rc, nil
}

// generateResetCode returns a random numeric code with resetCodeLength
// digits, using crypto/rand.
func generateResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < resetCodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", resetCodeLength, n), nil
}
