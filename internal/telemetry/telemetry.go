// Package telemetry provides OpenTelemetry metrics instrumentation for the
// mintwell API server, exposed through a Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// DefaultServiceName is the default service name for telemetry
const DefaultServiceName = "mintwell-api"

// Config represents the telemetry configuration
type Config struct {
	// Enabled controls whether metrics collection is enabled.
	// When false, a no-op meter provider is used and /metrics serves
	// an empty registry.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies the service in exported metrics.
	// Defaults to "mintwell-api" if not specified.
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion is the version reported with exported metrics.
	ServiceVersion string `yaml:"serviceVersion,omitempty"`
}

// GetServiceName returns the service name, using the default if not specified
func (c *Config) GetServiceName() string {
	if c == nil || c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c == nil || c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// Provider owns the meter provider and the Prometheus registry backing
// the /metrics endpoint.
type Provider struct {
	meterProvider metric.MeterProvider
	registry      *prometheus.Registry
	sdkProvider   *sdkmetric.MeterProvider
}

// NewProvider creates a Provider from config. With metrics disabled it
// returns a no-op provider whose Handler serves an empty registry.
func NewProvider(cfg *Config) (*Provider, error) {
	registry := prometheus.NewRegistry()

	if cfg == nil || !cfg.Enabled {
		return &Provider{
			meterProvider: noop.NewMeterProvider(),
			registry:      registry,
		}, nil
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	sdkProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Provider{
		meterProvider: sdkProvider,
		registry:      registry,
		sdkProvider:   sdkProvider,
	}, nil
}

// MeterProvider returns the meter provider for instrument creation.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Handler returns the Prometheus scrape handler.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdkProvider == nil {
		return nil
	}
	return p.sdkProvider.Shutdown(ctx)
}
