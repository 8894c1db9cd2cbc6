package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	var cfg *Config
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())

	cfg = &Config{ServiceName: "svc", ServiceVersion: "1.2.3"}
	assert.Equal(t, "svc", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
}

func TestNewProviderDisabled(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(&Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p.MeterProvider())

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderEnabled(t *testing.T) {
	t.Parallel()

	// Service attributes merge onto the SDK default resource; the two
	// must agree on schema version or construction fails.
	p, err := NewProvider(&Config{
		Enabled:        true,
		ServiceName:    "mintwell-api",
		ServiceVersion: "1.2.3",
	})
	require.NoError(t, err)
	require.NotNil(t, p.MeterProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestHTTPMetricsEndToEnd(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(&Config{Enabled: true, ServiceName: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	mw, err := MetricsMiddleware(p.MeterProvider())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/api/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	scrape := httptest.NewRecorder()
	p.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(scrape.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mintwell_http_requests_total")
	assert.Contains(t, string(body), `route="/api/v1/ping"`)
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	var h *HTTPMetrics
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	var s *SyncMetrics
	s.RecordSyncDuration(context.Background(), "plaid", time.Second, true)
	s.RecordTransactions(context.Background(), "plaid", 10)

	m, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	sm, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, sm)
}

func TestSyncMetricsRecord(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(&Config{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	sm, err := NewSyncMetrics(p.MeterProvider())
	require.NoError(t, err)
	sm.RecordSyncDuration(context.Background(), "plaid", 2*time.Second, true)
	sm.RecordTransactions(context.Background(), "plaid", 25)

	scrape := httptest.NewRecorder()
	p.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(scrape.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mintwell_sync_duration_seconds")
	assert.Contains(t, string(body), "mintwell_sync_transactions_total")
}
