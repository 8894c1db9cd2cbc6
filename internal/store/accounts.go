package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/db"
)

// AccountStore persists linked financial accounts.
type AccountStore struct {
	q db.Querier
}

// NewAccountStore creates an AccountStore backed by q.
func NewAccountStore(q db.Querier) *AccountStore {
	return &AccountStore{q: q}
}

// Upsert inserts the account or, when the (user, provider, external id)
// triple already exists, refreshes its mutable fields. Returns the stored
// account ID.
func (s *AccountStore) Upsert(ctx context.Context, acct *Account) (uuid.UUID, error) {
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}

	var id uuid.UUID
	row := s.q.QueryRow(ctx,
		`INSERT INTO accounts (id, user_id, provider_id, external_id, name, account_type, currency, balance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, provider_id, external_id)
		 DO UPDATE SET name = EXCLUDED.name,
		               account_type = EXCLUDED.account_type,
		               currency = EXCLUDED.currency,
		               balance = EXCLUDED.balance,
		               updated_at = now()
		 RETURNING id`,
		acct.ID, acct.UserID, acct.ProviderID, acct.ExternalID,
		acct.Name, acct.Type, acct.Currency, acct.Balance)

	if err := row.Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return id, nil
}

// ListByUser returns all of a user's accounts ordered by name.
func (s *AccountStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, user_id, provider_id, external_id, name, account_type, currency, balance, created_at, updated_at
		 FROM accounts WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProviderID, &a.ExternalID,
			&a.Name, &a.Type, &a.Currency, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
