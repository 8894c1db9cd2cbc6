package v1_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
	syncer "github.com/mintwell/mintwell-server/internal/sync"
)

func seedTransactions(f *fixture, n int) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acctID := uuid.New()
	for i := 0; i < n; i++ {
		f.fin.txns = append(f.fin.txns, store.Transaction{
			ID:         uuid.New(),
			UserID:     f.userID,
			AccountID:  acctID,
			ExternalID: uuid.NewString(),
			PostedAt:   base.Add(time.Duration(i) * time.Hour),
			Amount:     -12.50,
			Currency:   "USD",
			Merchant:   "Blue Bottle",
			Category:   "dining",
		})
	}
}

func TestListTransactions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedTransactions(f, 5)

	rec := f.do(t, "GET", "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	txns := decodeBody[[]store.Transaction](t, rec)
	assert.Len(t, txns, 5)
}

func TestListTransactionsPagination(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedTransactions(f, 8)

	rec := f.do(t, "GET", "/transactions?limit=3&offset=6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	txns := decodeBody[[]store.Transaction](t, rec)
	assert.Len(t, txns, 2)
}

func TestListTransactionsRejectsBadPaging(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name  string
		query string
	}{
		{"zero limit", "?limit=0"},
		{"limit too large", "?limit=501"},
		{"non-numeric limit", "?limit=many"},
		{"negative offset", "?offset=-1"},
		{"non-numeric offset", "?offset=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "GET", "/transactions"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSyncFullEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, "POST", "/transactions/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[syncer.Result](t, rec)
	assert.Equal(t, "plaid", result.ProviderID)
	assert.True(t, result.Full)
	assert.Positive(t, result.Transactions)

	// The pulled feed must land in the transaction store.
	listed := f.do(t, "GET", "/transactions?limit=500", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	txns := decodeBody[[]store.Transaction](t, listed)
	assert.Len(t, txns, result.Transactions)
}

func TestSyncIncrementalEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	first := f.do(t, "POST", "/transactions/sync", nil)
	require.Equal(t, http.StatusOK, first.Code)
	full := decodeBody[syncer.Result](t, first)

	second := f.do(t, "POST", "/transactions/sync/incremental", nil)
	require.Equal(t, http.StatusOK, second.Code)
	incr := decodeBody[syncer.Result](t, second)

	assert.False(t, incr.Full)
	// The sandbox feed is static, so re-syncing from the cursor finds
	// nothing new.
	assert.Zero(t, incr.Transactions)
	assert.Positive(t, full.Transactions)
}

func TestSyncFallsBackWhenPrimaryUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.registry.MarkStale(f.userID.String(), "plaid")
	require.NoError(t, err)

	rec := f.do(t, "POST", "/transactions/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[syncer.Result](t, rec)
	assert.Equal(t, "stripe", result.ProviderID)
}

func TestSyncNoHealthyProvider(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, id := range []string{"plaid", "stripe"} {
		_, err := f.registry.MarkStale(f.userID.String(), id)
		require.NoError(t, err)
	}

	rec := f.do(t, "POST", "/transactions/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncStatusEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.health.EXPECT().GetHealth(gomock.Any(), f.userID).Return(&status.Report{
		State:            status.StateSyncing,
		ConnectionHealth: status.HealthHealthy,
		TimeAgo:          "never",
	}, nil)

	rec := f.do(t, "GET", "/transactions/sync/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decodeBody[status.Report](t, rec)
	assert.Equal(t, status.StateSyncing, report.State)
}

func TestListAccounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	synced := f.do(t, "POST", "/transactions/sync", nil)
	require.Equal(t, http.StatusOK, synced.Code)

	rec := f.do(t, "GET", "/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	accounts := decodeBody[[]store.Account](t, rec)
	require.NotEmpty(t, accounts)
	for _, a := range accounts {
		assert.Equal(t, f.userID, a.UserID)
		assert.Equal(t, "plaid", a.ProviderID)
	}
}
