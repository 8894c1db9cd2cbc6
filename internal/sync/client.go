// Package sync pulls account and transaction data from financial data
// providers into local storage.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrReauthRequired means the provider connection must be relinked by the
// user before syncing can continue. It is not retried.
var ErrReauthRequired = errors.New("login required: please reconnect your account")

// Account is one financial account as reported by a provider.
type Account struct {
	ExternalID string
	Name       string
	Type       string
	Currency   string
	Balance    float64
}

// Transaction is one transaction as reported by a provider.
type Transaction struct {
	ExternalAccountID string
	ExternalID        string
	PostedAt          time.Time
	Amount            float64
	Currency          string
	Merchant          string
	Category          string
	Deductible        bool
}

// TransactionPage is one page of a cursor-paged transaction feed.
// NextCursor is the resume point after this page; HasMore reports whether
// another page is available right now.
type TransactionPage struct {
	Transactions []Transaction
	NextCursor   string
	HasMore      bool
}

// Client fetches data from one provider. Implementations return
// ErrReauthRequired when the provider-side connection is broken; any other
// error is treated as transient and retried.
type Client interface {
	ProviderID() string
	FetchAccounts(ctx context.Context, userID uuid.UUID) ([]Account, error)
	FetchTransactions(ctx context.Context, userID uuid.UUID, cursor string, pageSize int) (*TransactionPage, error)
}
