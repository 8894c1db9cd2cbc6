package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/mintwell/mintwell-server/sync"

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	transactions metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"mintwell_sync_duration_seconds",
		metric.WithDescription("Duration of provider sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	transactions, err := meter.Int64Counter(
		"mintwell_sync_transactions_total",
		metric.WithDescription("Transactions ingested by sync runs"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		transactions: transactions,
	}, nil
}

// RecordSyncDuration records the duration of one sync run for a provider
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, providerID string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", providerID),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTransactions counts transactions ingested via a provider
func (m *SyncMetrics) RecordTransactions(ctx context.Context, providerID string, count int64) {
	if m == nil || m.transactions == nil {
		return
	}

	m.transactions.Add(ctx, count, metric.WithAttributes(
		attribute.String("provider", providerID),
	))
}
