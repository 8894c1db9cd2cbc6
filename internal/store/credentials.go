package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/db"
)

// CredentialStore persists WebAuthn credentials.
type CredentialStore struct {
	q db.Querier
}

// NewCredentialStore creates a CredentialStore backed by q.
func NewCredentialStore(q db.Querier) *CredentialStore {
	return &CredentialStore{q: q}
}

// Add stores a new credential for userID. The credential ID is the
// base64url encoding of the authenticator's credential ID.
func (s *CredentialStore) Add(ctx context.Context, userID uuid.UUID, credentialID string, credential json.RawMessage) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO passkey_credentials (id, user_id, credential)
		 VALUES ($1, $2, $3)`,
		credentialID, userID, credential)
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// ListByUser returns all credentials registered by userID.
func (s *CredentialStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]PasskeyCredential, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, credential, created_at
		 FROM passkey_credentials
		 WHERE user_id = $1
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []PasskeyCredential
	for rows.Next() {
		var c PasskeyCredential
		if err := rows.Scan(&c.ID, &c.UserID, &c.Credential, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// Delete removes one credential owned by userID.
func (s *CredentialStore) Delete(ctx context.Context, userID uuid.UUID, credentialID string) error {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM passkey_credentials WHERE id = $1 AND user_id = $2`,
		credentialID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
