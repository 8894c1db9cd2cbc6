package sync

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintwell/mintwell-server/internal/config"
	"github.com/mintwell/mintwell-server/internal/provider"
	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
)

// fakeClient serves a small scripted feed and can be told to fail.
type fakeClient struct {
	id        string
	accounts  []Account
	feed      []Transaction
	pageSize  int
	failTimes int
	failWith  error
	calls     int
}

func (f *fakeClient) ProviderID() string { return f.id }

func (f *fakeClient) FetchAccounts(_ context.Context, _ uuid.UUID) ([]Account, error) {
	f.calls++
	if f.failTimes > 0 {
		f.failTimes--
		return nil, f.failWith
	}
	return f.accounts, nil
}

func (f *fakeClient) FetchTransactions(_ context.Context, _ uuid.UUID, cursor string, pageSize int) (*TransactionPage, error) {
	offset := 0
	if cursor != "" {
		var err error
		offset, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, err
		}
	}
	end := offset + pageSize
	if end > len(f.feed) {
		end = len(f.feed)
	}
	return &TransactionPage{
		Transactions: f.feed[offset:end],
		NextCursor:   strconv.Itoa(end),
		HasMore:      end < len(f.feed),
	}, nil
}

type memAccounts struct {
	byKey map[string]uuid.UUID
}

func (m *memAccounts) Upsert(_ context.Context, acct *store.Account) (uuid.UUID, error) {
	key := acct.ProviderID + "/" + acct.ExternalID
	id, ok := m.byKey[key]
	if !ok {
		id = uuid.New()
		m.byKey[key] = id
	}
	return id, nil
}

type memTransactions struct {
	byExternalID map[string]store.Transaction
}

func (m *memTransactions) Upsert(_ context.Context, txn *store.Transaction) error {
	m.byExternalID[txn.ExternalID] = *txn
	return nil
}

type memCursors struct {
	cursors map[string]string
}

func (m *memCursors) Get(_ context.Context, userID uuid.UUID, providerID string) (string, error) {
	return m.cursors[userID.String()+"/"+providerID], nil
}

func (m *memCursors) Set(_ context.Context, userID uuid.UUID, providerID, cursor string) error {
	m.cursors[userID.String()+"/"+providerID] = cursor
	return nil
}

type engineFixture struct {
	engine   *Engine
	registry *provider.Registry
	statuses status.Store
	accounts *memAccounts
	txns     *memTransactions
	cursors  *memCursors
}

func newFixture(t *testing.T, clients ...Client) *engineFixture {
	t.Helper()
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ProviderID())
	}
	f := &engineFixture{
		registry: provider.NewRegistryWithProviders(ids),
		statuses: status.NewStore(),
		accounts: &memAccounts{byKey: make(map[string]uuid.UUID)},
		txns:     &memTransactions{byExternalID: make(map[string]store.Transaction)},
		cursors:  &memCursors{cursors: make(map[string]string)},
	}
	cfg := config.SyncConfig{MaxRetries: 2, RetryBaseDelay: "1ms", PageSize: 10}
	engine, err := NewEngine(clients, f.registry, f.statuses, f.accounts, f.txns, f.cursors, cfg)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func feedOf(n int) []Transaction {
	feed := make([]Transaction, n)
	for i := range feed {
		feed[i] = Transaction{
			ExternalAccountID: "acct-0",
			ExternalID:        "txn-" + strconv.Itoa(i),
			PostedAt:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i),
			Amount:            -12.50,
			Currency:          "USD",
			Merchant:          "Corner Grocery",
			Category:          "groceries",
		}
	}
	return feed
}

func TestSyncFull(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		id:       "plaid",
		accounts: []Account{{ExternalID: "acct-0", Name: "Checking", Type: "checking", Currency: "USD", Balance: 100}},
		feed:     feedOf(25),
	}
	f := newFixture(t, client)
	userID := uuid.New()

	result, err := f.engine.SyncFull(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "plaid", result.ProviderID)
	assert.Equal(t, 1, result.Accounts)
	assert.Equal(t, 25, result.Transactions)
	assert.True(t, result.Full)
	assert.Len(t, f.txns.byExternalID, 25)

	rec := f.statuses.Get(userID.String())
	assert.Equal(t, status.StateCompleted, rec.State)
	assert.Equal(t, status.HealthHealthy, rec.ConnectionHealth)
	assert.Zero(t, rec.ConsecutiveFailures)
	require.NotNil(t, rec.LastSyncAt)

	h, err := f.registry.Get(userID.String(), "plaid")
	require.NoError(t, err)
	assert.True(t, h.Healthy)
}

func TestSyncIncrementalResumesCursor(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		id:       "plaid",
		accounts: []Account{{ExternalID: "acct-0"}},
		feed:     feedOf(25),
	}
	f := newFixture(t, client)
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.engine.SyncFull(ctx, userID)
	require.NoError(t, err)

	// The cursor points past the drained feed, so an incremental sync
	// ingests nothing new.
	result, err := f.engine.SyncIncremental(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, result.Transactions)
	assert.False(t, result.Full)

	// New activity appears; the incremental run picks up only the tail.
	client.feed = feedOf(30)
	result, err = f.engine.SyncIncremental(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Transactions)
}

func TestSyncRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		id:        "plaid",
		accounts:  []Account{{ExternalID: "acct-0"}},
		feed:      feedOf(5),
		failTimes: 2,
		failWith:  errors.New("connection reset"),
	}
	f := newFixture(t, client)

	_, err := f.engine.SyncFull(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestSyncFailureRecordsStatus(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		id:        "plaid",
		failTimes: 100,
		failWith:  errors.New("provider exploded"),
	}
	f := newFixture(t, client)
	userID := uuid.New()

	_, err := f.engine.SyncFull(context.Background(), userID)
	require.Error(t, err)

	rec := f.statuses.Get(userID.String())
	assert.Equal(t, status.StateError, rec.State)
	assert.Equal(t, 1, rec.ConsecutiveFailures)
	assert.Equal(t, status.HealthDegraded, rec.ConnectionHealth)
	assert.Contains(t, rec.LastError, "provider exploded")

	h, err := f.registry.Get(userID.String(), "plaid")
	require.NoError(t, err)
	assert.False(t, h.Healthy)
	assert.Equal(t, 1, h.FailureCount)
}

func TestSyncRepeatedFailuresGoUnhealthy(t *testing.T) {
	t.Parallel()

	client := &fakeClient{id: "plaid", failTimes: 1000, failWith: errors.New("down")}
	f := newFixture(t, client)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.engine.SyncFull(ctx, userID)
		require.Error(t, err)
	}

	rec := f.statuses.Get(userID.String())
	assert.Equal(t, 3, rec.ConsecutiveFailures)
	assert.Equal(t, status.HealthUnhealthy, rec.ConnectionHealth)
}

func TestSyncReauthMarksStale(t *testing.T) {
	t.Parallel()

	plaid := &fakeClient{id: "plaid", failTimes: 1, failWith: ErrReauthRequired}
	f := newFixture(t, plaid)
	userID := uuid.New()

	_, err := f.engine.SyncFull(context.Background(), userID)
	require.ErrorIs(t, err, ErrReauthRequired)
	// Reauth failures are terminal, not retried.
	assert.Equal(t, 1, plaid.calls)

	rec := f.statuses.Get(userID.String())
	assert.Equal(t, status.HealthStale, rec.ConnectionHealth)

	h, err := f.registry.Get(userID.String(), "plaid")
	require.NoError(t, err)
	assert.True(t, h.Stale)
}

func TestSyncFallsBackToNextProvider(t *testing.T) {
	t.Parallel()

	plaid := &fakeClient{id: "plaid", failTimes: 1, failWith: ErrReauthRequired}
	stripe := &fakeClient{
		id:       "stripe",
		accounts: []Account{{ExternalID: "acct-0"}},
		feed:     feedOf(3),
	}
	f := newFixture(t, plaid, stripe)
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.engine.SyncFull(ctx, userID)
	require.ErrorIs(t, err, ErrReauthRequired)

	// plaid is stale now, so the next run picks stripe.
	result, err := f.engine.SyncFull(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "stripe", result.ProviderID)
}

func TestSyncNoHealthyProvider(t *testing.T) {
	t.Parallel()

	plaid := &fakeClient{id: "plaid", failTimes: 1, failWith: ErrReauthRequired}
	f := newFixture(t, plaid)
	userID := uuid.New()
	ctx := context.Background()

	_, err := f.engine.SyncFull(ctx, userID)
	require.ErrorIs(t, err, ErrReauthRequired)

	_, err = f.engine.SyncFull(ctx, userID)
	require.ErrorIs(t, err, ErrNoHealthyProvider)

	rec := f.statuses.Get(userID.String())
	assert.Equal(t, status.StateError, rec.State)
	assert.Equal(t, 2, rec.ConsecutiveFailures)
}

func TestNewEngineMissingClient(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistryWithProviders([]string{"plaid", "stripe"})
	_, err := NewEngine(
		[]Client{&fakeClient{id: "plaid"}},
		registry,
		status.NewStore(),
		&memAccounts{byKey: make(map[string]uuid.UUID)},
		&memTransactions{byExternalID: make(map[string]store.Transaction)},
		&memCursors{cursors: make(map[string]string)},
		config.SyncConfig{},
	)
	assert.Error(t, err)
}

func TestSandboxClientDeterministic(t *testing.T) {
	t.Parallel()

	client := NewSandboxClient("plaid")
	userID := uuid.New()
	ctx := context.Background()

	a1, err := client.FetchAccounts(ctx, userID)
	require.NoError(t, err)
	a2, err := client.FetchAccounts(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.GreaterOrEqual(t, len(a1), 2)

	seen := 0
	cursor := ""
	for {
		page, err := client.FetchTransactions(ctx, userID, cursor, 10)
		require.NoError(t, err)
		seen += len(page.Transactions)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, 25, seen)
}

func TestSandboxClientHighBitSeed(t *testing.T) {
	t.Parallel()

	// FNV-64a of this ID is 0x88201eb960ff62b2; merchant selection must
	// stay in range even when the seed exceeds math.MaxInt64.
	userID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	client := NewSandboxClient("plaid")

	page, err := client.FetchTransactions(context.Background(), userID, "", 25)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 25)
	for _, txn := range page.Transactions {
		assert.NotEmpty(t, txn.Merchant)
	}
}

func TestSandboxClientBadCursor(t *testing.T) {
	t.Parallel()

	client := NewSandboxClient("plaid")
	_, err := client.FetchTransactions(context.Background(), uuid.New(), "nope", 10)
	assert.Error(t, err)
}
