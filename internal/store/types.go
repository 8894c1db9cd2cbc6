// Package store provides PostgreSQL-backed persistence for users, accounts,
// transactions, passkey credentials, devices and audit records.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a registered account holder.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account is a linked financial account synced from a provider.
type Account struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ProviderID string    `json:"provider_id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Type       string    `json:"account_type"`
	Currency   string    `json:"currency"`
	Balance    float64   `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Transaction is a single synced financial transaction.
type Transaction struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	AccountID  uuid.UUID `json:"account_id"`
	ExternalID string    `json:"external_id"`
	PostedAt   time.Time `json:"posted_at"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Merchant   string    `json:"merchant"`
	Category   string    `json:"category"`
	Deductible bool      `json:"deductible"`
	CreatedAt  time.Time `json:"created_at"`
}

// PasskeyCredential is a stored WebAuthn credential. The credential body is
// kept as the JSON marshalling of webauthn.Credential.
type PasskeyCredential struct {
	ID         string          `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Credential json.RawMessage `json:"credential"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Device is a registered push-notification target.
type Device struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// ResetCode is a pending password-reset code. Only the bcrypt hash of the
// code is stored.
type ResetCode struct {
	UserID    uuid.UUID
	CodeHash  string
	ExpiresAt time.Time
}

// AuditEntry records a compliance-relevant action.
type AuditEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
