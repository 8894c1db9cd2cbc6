package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token uses distinguish access tokens from refresh tokens so one cannot be
// replayed as the other.
const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// ErrInvalidToken is returned when a token fails validation for any reason.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
}

// TokenProvider issues and validates HS256-signed JWTs.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider creates a TokenProvider. The secret must not be empty.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signing secret is required")
	}
	return &TokenProvider{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Issue creates an access/refresh token pair for the identity.
func (p *TokenProvider) Issue(id Identity) (*TokenPair, error) {
	accessExpiry := p.now().Add(p.accessTTL)

	access, err := p.sign(id, tokenUseAccess, accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := p.sign(id, tokenUseRefresh, p.now().Add(p.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry,
	}, nil
}

func (p *TokenProvider) sign(id Identity, use string, expiresAt time.Time) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    id.Email,
		TokenUse: use,
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccess resolves an access token to its identity.
func (p *TokenProvider) ValidateAccess(token string) (Identity, error) {
	return p.validate(token, tokenUseAccess)
}

// ValidateRefresh resolves a refresh token to its identity.
func (p *TokenProvider) ValidateRefresh(token string) (Identity, error) {
	return p.validate(token, tokenUseRefresh)
}

func (p *TokenProvider) validate(tokenStr, wantUse string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if c.TokenUse != wantUse {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, Email: c.Email}, nil
}
