package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/db"
)

// TransactionStore persists synced transactions.
type TransactionStore struct {
	q db.Querier
}

// NewTransactionStore creates a TransactionStore backed by q.
func NewTransactionStore(q db.Querier) *TransactionStore {
	return &TransactionStore{q: q}
}

// Upsert inserts the transaction or refreshes it when the provider resends
// the same external ID, which happens on incremental syncs that overlap.
func (s *TransactionStore) Upsert(ctx context.Context, txn *Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	_, err := s.q.Exec(ctx,
		`INSERT INTO transactions
		     (id, user_id, account_id, external_id, posted_at, amount, currency, merchant, category, deductible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id, external_id)
		 DO UPDATE SET posted_at = EXCLUDED.posted_at,
		               amount = EXCLUDED.amount,
		               merchant = EXCLUDED.merchant,
		               category = EXCLUDED.category,
		               deductible = EXCLUDED.deductible`,
		txn.ID, txn.UserID, txn.AccountID, txn.ExternalID, txn.PostedAt,
		txn.Amount, txn.Currency, txn.Merchant, txn.Category, txn.Deductible)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's transactions, newest first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, account_id, external_id, posted_at, amount, currency, merchant, category, deductible, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY posted_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByUserYear returns every transaction the user posted in the given
// calendar year (UTC), oldest first, for tax exports.
func (s *TransactionStore) ListByUserYear(ctx context.Context, userID uuid.UUID, year int) ([]Transaction, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, account_id, external_id, posted_at, amount, currency, merchant, category, deductible, created_at
		 FROM transactions
		 WHERE user_id = $1 AND posted_at >= $2 AND posted_at < $3
		 ORDER BY posted_at`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for year %d: %w", year, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows rowScanner) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.ExternalID, &t.PostedAt,
			&t.Amount, &t.Currency, &t.Merchant, &t.Category, &t.Deductible, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
