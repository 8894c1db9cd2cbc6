package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mintwell/mintwell-server/internal/db"
)

// CursorStore persists per-user, per-provider incremental sync cursors.
// The cursor value is opaque to the server; only the provider interprets it.
type CursorStore struct {
	q db.Querier
}

// NewCursorStore creates a CursorStore backed by q.
func NewCursorStore(q db.Querier) *CursorStore {
	return &CursorStore{q: q}
}

// Get returns the stored cursor, or the empty string when the user has
// never completed an incremental sync with the provider.
func (s *CursorStore) Get(ctx context.Context, userID uuid.UUID, providerID string) (string, error) {
	var cursor string
	row := s.q.QueryRow(ctx,
		`SELECT cursor FROM sync_cursors WHERE user_id = $1 AND provider_id = $2`,
		userID, providerID)
	err := row.Scan(&cursor)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load sync cursor: %w", err)
	}
	return cursor, nil
}

// Set stores the cursor returned by the last successful incremental sync.
func (s *CursorStore) Set(ctx context.Context, userID uuid.UUID, providerID, cursor string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO sync_cursors (user_id, provider_id, cursor)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, provider_id)
		 DO UPDATE SET cursor = EXCLUDED.cursor, updated_at = now()`,
		userID, providerID, cursor)
	if err != nil {
		return fmt.Errorf("failed to store sync cursor: %w", err)
	}
	return nil
}
