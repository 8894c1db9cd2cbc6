package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/db"
)

// Audit actions recorded by the compliance layer.
const (
	AuditActionGDPRExport = "gdpr_export"
	AuditActionDMAExport  = "dma_export"
	AuditActionGDPRDelete = "gdpr_delete"
	AuditActionTaxExport  = "tax_export"
)

// AuditStore persists compliance audit records. Audit rows intentionally
// have no foreign key on users so they survive GDPR deletion.
type AuditStore struct {
	q db.Querier
}

// NewAuditStore creates an AuditStore backed by q.
func NewAuditStore(q db.Querier) *AuditStore {
	return &AuditStore{q: q}
}

// Record appends an audit entry.
func (s *AuditStore) Record(ctx context.Context, userID uuid.UUID, action, detail string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO audit_log (id, user_id, action, detail)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, action, detail)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByUser returns a user's audit trail, newest first.
func (s *AuditStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]AuditEntry, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, action, detail, created_at
		 FROM audit_log
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
