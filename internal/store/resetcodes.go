package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mintwell/mintwell-server/internal/db"
)

// ResetCodeStore persists pending password-reset codes, one per user.
type ResetCodeStore struct {
	q db.Querier
}

// NewResetCodeStore creates a ResetCodeStore backed by q.
func NewResetCodeStore(q db.Querier) *ResetCodeStore {
	return &ResetCodeStore{q: q}
}

// Upsert stores the reset code hash, replacing any outstanding code for the
// user.
func (s *ResetCodeStore) Upsert(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO password_reset_codes (user_id, code_hash, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET code_hash = EXCLUDED.code_hash,
		               expires_at = EXCLUDED.expires_at,
		               created_at = now()`,
		userID, codeHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// Get loads the outstanding reset code for userID.
func (s *ResetCodeStore) Get(ctx context.Context, userID uuid.UUID) (*ResetCode, error) {
	var rc ResetCode
	row := s.q.QueryRow(ctx,
		`SELECT user_id, code_hash, expires_at
		 FROM password_reset_codes WHERE user_id = $1`, userID)
	err := row.Scan(&rc.UserID, &rc.CodeHash, &rc.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reset code: %w", err)
	}
	return &rc, nil
}

// Delete removes the outstanding reset code for userID, if any.
func (s *ResetCodeStore) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := s.q.Exec(ctx,
		`DELETE FROM password_reset_codes WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reset code: %w", err)
	}
	return nil
}
