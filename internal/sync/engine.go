package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/mintwell/mintwell-server/internal/config"
	"github.com/mintwell/mintwell-server/internal/provider"
	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

// ErrNoHealthyProvider is returned when every configured provider is down
// or needs relinking.
var ErrNoHealthyProvider = errors.New("no healthy provider available")

// maxBackoffDelay caps a single retry wait.
const maxBackoffDelay = 10 * time.Second

// AccountStore is the account persistence surface the engine needs.
type AccountStore interface {
	Upsert(ctx context.Context, acct *store.Account) (uuid.UUID, error)
}

// TransactionStore is the transaction persistence surface.
type TransactionStore interface {
	Upsert(ctx context.Context, txn *store.Transaction) error
}

// CursorStore persists per-provider sync cursors.
type CursorStore interface {
	Get(ctx context.Context, userID uuid.UUID, providerID string) (string, error)
	Set(ctx context.Context, userID uuid.UUID, providerID, cursor string) error
}

// MetricsRecorder records sync run outcomes. *telemetry.SyncMetrics
// satisfies it.
type MetricsRecorder interface {
	RecordSyncDuration(ctx context.Context, providerID string, duration time.Duration, success bool)
	RecordTransactions(ctx context.Context, providerID string, count int64)
}

// Result summarizes one completed sync run.
type Result struct {
	ProviderID   string `json:"provider_id"`
	Accounts     int    `json:"accounts"`
	Transactions int    `json:"transactions"`
	Full         bool   `json:"full"`
}

// Engine runs full and incremental syncs, recording outcomes in the
// status store and the provider health registry.
type Engine struct {
	clients      map[string]Client
	registry     *provider.Registry
	statuses     status.Store
	accounts     AccountStore
	transactions TransactionStore
	cursors      CursorStore
	cfg          config.SyncConfig
	metrics      MetricsRecorder
	now          func() time.Time
}

// NewEngine creates a sync Engine. Every provider in registry must have a
// matching client.
func NewEngine(
	clients []Client,
	registry *provider.Registry,
	statuses status.Store,
	accounts AccountStore,
	transactions TransactionStore,
	cursors CursorStore,
	cfg config.SyncConfig,
) (*Engine, error) {
	byID := make(map[string]Client, len(clients))
	for _, c := range clients {
		byID[c.ProviderID()] = c
	}
	for _, id := range registry.Providers() {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("no client for provider %q", id)
		}
	}
	return &Engine{
		clients:      byID,
		registry:     registry,
		statuses:     statuses,
		accounts:     accounts,
		transactions: transactions,
		cursors:      cursors,
		cfg:          cfg,
		now:          time.Now,
	}, nil
}

// WithMetrics attaches a metrics recorder and returns the engine.
func (e *Engine) WithMetrics(m MetricsRecorder) *Engine {
	e.metrics = m
	return e
}

// SyncFull discards the stored cursor and pulls the whole feed.
func (e *Engine) SyncFull(ctx context.Context, userID uuid.UUID) (*Result, error) {
	return e.run(ctx, userID, true)
}

// SyncIncremental resumes from the stored cursor.
func (e *Engine) SyncIncremental(ctx context.Context, userID uuid.UUID) (*Result, error) {
	return e.run(ctx, userID, false)
}

func (e *Engine) run(ctx context.Context, userID uuid.UUID, full bool) (*Result, error) {
	uid := userID.String()

	rec := e.statuses.Get(uid)
	rec.State = status.StateSyncing
	e.statuses.Set(uid, rec)

	providerID, ok := e.registry.PickHealthy(uid)
	if !ok {
		e.recordFailure(uid, "", ErrNoHealthyProvider)
		return nil, ErrNoHealthyProvider
	}

	start := e.now()
	result, err := e.pull(ctx, userID, providerID, full)
	if e.metrics != nil {
		e.metrics.RecordSyncDuration(ctx, providerID, e.now().Sub(start), err == nil)
	}
	if err != nil {
		e.recordFailure(uid, providerID, err)
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordTransactions(ctx, providerID, int64(result.Transactions))
	}

	e.recordSuccess(uid, providerID)
	logger.Infof("Synced user %s via %s: %d accounts, %d transactions (full=%t)",
		uid, providerID, result.Accounts, result.Transactions, full)
	return result, nil
}

func (e *Engine) pull(ctx context.Context, userID uuid.UUID, providerID string, full bool) (*Result, error) {
	client := e.clients[providerID]
	result := &Result{ProviderID: providerID, Full: full}

	var provAccounts []Account
	err := e.withRetry(ctx, "fetch accounts", func(ctx context.Context) error {
		var err error
		provAccounts, err = client.FetchAccounts(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Account UUIDs keyed by the provider's account IDs, for linking
	// transactions below.
	accountIDs := make(map[string]uuid.UUID, len(provAccounts))
	for i := range provAccounts {
		pa := &provAccounts[i]
		id, err := e.accounts.Upsert(ctx, &store.Account{
			UserID:     userID,
			ProviderID: providerID,
			ExternalID: pa.ExternalID,
			Name:       pa.Name,
			Type:       pa.Type,
			Currency:   pa.Currency,
			Balance:    pa.Balance,
		})
		if err != nil {
			return nil, err
		}
		accountIDs[pa.ExternalID] = id
		result.Accounts++
	}

	cursor := ""
	if !full {
		var err error
		cursor, err = e.cursors.Get(ctx, userID, providerID)
		if err != nil {
			return nil, err
		}
	}

	pageSize := e.cfg.GetPageSize()
	for {
		var page *TransactionPage
		err := e.withRetry(ctx, "fetch transactions", func(ctx context.Context) error {
			var err error
			page, err = client.FetchTransactions(ctx, userID, cursor, pageSize)
			return err
		})
		if err != nil {
			return nil, err
		}

		for i := range page.Transactions {
			pt := &page.Transactions[i]
			accountID, ok := accountIDs[pt.ExternalAccountID]
			if !ok {
				logger.Warnf("Skipping transaction %s for unknown account %s", pt.ExternalID, pt.ExternalAccountID)
				continue
			}
			err := e.transactions.Upsert(ctx, &store.Transaction{
				UserID:     userID,
				AccountID:  accountID,
				ExternalID: pt.ExternalID,
				PostedAt:   pt.PostedAt,
				Amount:     pt.Amount,
				Currency:   pt.Currency,
				Merchant:   pt.Merchant,
				Category:   pt.Category,
				Deductible: pt.Deductible,
			})
			if err != nil {
				return nil, err
			}
			result.Transactions++
		}

		if page.NextCursor != "" && page.NextCursor != cursor {
			cursor = page.NextCursor
			if err := e.cursors.Set(ctx, userID, providerID, cursor); err != nil {
				return nil, err
			}
		}
		if !page.HasMore {
			break
		}
	}

	return result, nil
}

// withRetry retries transient provider failures with capped exponential
// backoff. ErrReauthRequired fails immediately.
func (e *Engine) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.NewExponential(e.cfg.GetRetryBaseDelay())
	backoff = retry.WithMaxRetries(uint64(e.cfg.GetMaxRetries()), backoff)
	backoff = retry.WithCappedDuration(maxBackoffDelay, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrReauthRequired) {
			return err
		}
		logger.Warnf("Sync %s failed, retrying: %v", op, err)
		return retry.RetryableError(err)
	})
}

func (e *Engine) recordSuccess(uid, providerID string) {
	now := e.now().UTC()
	e.statuses.Set(uid, status.Record{
		State:            status.StateCompleted,
		LastSyncAt:       &now,
		ConnectionHealth: status.HealthHealthy,
	})
	if _, err := e.registry.Update(uid, providerID, true, false, ""); err != nil {
		logger.Errorf("Failed to record provider success for %s/%s: %v", uid, providerID, err)
	}
}

func (e *Engine) recordFailure(uid, providerID string, cause error) {
	rec := e.statuses.Get(uid)
	rec.State = status.StateError
	rec.ConsecutiveFailures++
	rec.LastError = cause.Error()

	stale := errors.Is(cause, ErrReauthRequired)
	switch {
	case stale:
		rec.ConnectionHealth = status.HealthStale
	case rec.ConsecutiveFailures >= 3:
		rec.ConnectionHealth = status.HealthUnhealthy
	default:
		rec.ConnectionHealth = status.HealthDegraded
	}
	e.statuses.Set(uid, rec)

	if providerID == "" {
		return
	}
	if _, err := e.registry.Update(uid, providerID, false, stale, cause.Error()); err != nil {
		logger.Errorf("Failed to record provider failure for %s/%s: %v", uid, providerID, err)
	}
}
