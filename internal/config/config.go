// Package config provides configuration loading and management for the
// mintwell API server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// knownProviders is the set of financial data providers the server can
// track. Configuration may list any subset; order is the sync fallback
// chain.
var knownProviders = map[string]bool{
	"plaid":    true,
	"stripe":   true,
	"finicity": true,
	"teller":   true,
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Providers lists the enabled financial data providers in fallback
	// order. Defaults to all known providers when empty.
	Providers []string `yaml:"providers,omitempty"`

	Auth      AuthConfig      `yaml:"auth"`
	Passkey   PasskeyConfig   `yaml:"passkey"`
	Sync      SyncConfig      `yaml:"sync,omitempty"`
	Database  *DatabaseConfig `yaml:"database,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`

	// StatusSnapshotDir is the directory where the in-memory sync status
	// cache is snapshotted on shutdown and reloaded on startup. Empty
	// disables snapshots.
	StatusSnapshotDir string `yaml:"statusSnapshotDir,omitempty"`
}

// TelemetryConfig defines metrics exposure settings
type TelemetryConfig struct {
	// Enabled turns on the Prometheus /metrics endpoint
	Enabled bool `yaml:"enabled,omitempty"`

	// ServiceName overrides the service.name resource attribute
	ServiceName string `yaml:"serviceName,omitempty"`
}

// AuthConfig defines token issuance settings
type AuthConfig struct {
	// JWTSecretFile is the path to a file containing the HMAC signing
	// secret. Falls back to MINTWELL_JWT_SECRET when empty.
	JWTSecretFile string `yaml:"jwtSecretFile,omitempty"`

	// AccessTokenTTL is the lifetime of issued access tokens (e.g. "15m")
	AccessTokenTTL string `yaml:"accessTokenTTL,omitempty"`

	// RefreshTokenTTL is the lifetime of issued refresh tokens (e.g. "720h")
	RefreshTokenTTL string `yaml:"refreshTokenTTL,omitempty"`
}

// PasskeyConfig defines the WebAuthn relying party settings
type PasskeyConfig struct {
	// RPID is the relying party identifier, usually the effective domain
	RPID string `yaml:"rpID"`

	// RPDisplayName is shown to users during passkey ceremonies
	RPDisplayName string `yaml:"rpDisplayName,omitempty"`

	// RPOrigins are the web origins allowed to complete ceremonies
	RPOrigins []string `yaml:"rpOrigins"`
}

// SyncConfig defines transaction sync behavior
type SyncConfig struct {
	// MaxRetries is the number of retry attempts for transient provider
	// failures
	MaxRetries int `yaml:"maxRetries,omitempty"`

	// RetryBaseDelay is the initial backoff delay (e.g. "200ms")
	RetryBaseDelay string `yaml:"retryBaseDelay,omitempty"`

	// PageSize is the number of transactions fetched per provider call
	PageSize int `yaml:"pageSize,omitempty"`
}

// GetMaxRetries returns the configured retry attempts, defaulting to 3.
func (c *SyncConfig) GetMaxRetries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

// GetRetryBaseDelay returns the parsed base backoff delay, defaulting to
// 200ms.
func (c *SyncConfig) GetRetryBaseDelay() time.Duration {
	if c.RetryBaseDelay == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(c.RetryBaseDelay)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// GetPageSize returns the provider fetch page size, defaulting to 100.
func (c *SyncConfig) GetPageSize() int {
	if c.PageSize <= 0 {
		return 100
	}
	return c.PageSize
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// This is the recommended approach for production deployments.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from MINTWELL_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv("MINTWELL_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or MINTWELL_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// GetJWTSecret returns the token signing secret from the configured file or
// the MINTWELL_JWT_SECRET environment variable.
func (a *AuthConfig) GetJWTSecret() ([]byte, error) {
	if a.JWTSecretFile != "" {
		cleanPath := filepath.Clean(a.JWTSecretFile)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read JWT secret from file %s: %w", a.JWTSecretFile, err)
		}
		return []byte(strings.TrimSpace(string(data))), nil
	}

	if envSecret := os.Getenv("MINTWELL_JWT_SECRET"); envSecret != "" {
		return []byte(envSecret), nil
	}

	return nil, fmt.Errorf(
		"no JWT secret configured: set jwtSecretFile or MINTWELL_JWT_SECRET environment variable",
	)
}

// GetAccessTokenTTL parses the access token lifetime, defaulting to 15 minutes.
func (a *AuthConfig) GetAccessTokenTTL() (time.Duration, error) {
	return parseTTL(a.AccessTokenTTL, 15*time.Minute)
}

// GetRefreshTokenTTL parses the refresh token lifetime, defaulting to 30 days.
func (a *AuthConfig) GetRefreshTokenTTL() (time.Duration, error) {
	return parseTTL(a.RefreshTokenTTL, 30*24*time.Hour)
}

func parseTTL(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

// GetProviders returns the configured provider fallback chain, defaulting
// to all known providers.
func (c *Config) GetProviders() []string {
	if len(c.Providers) == 0 {
		return []string{"plaid", "stripe", "finicity", "teller"}
	}
	return c.Providers
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	seen := make(map[string]bool)
	for i, p := range c.Providers {
		if !knownProviders[p] {
			return fmt.Errorf("providers[%d]: unknown provider %q", i, p)
		}
		if seen[p] {
			return fmt.Errorf("providers[%d]: duplicate provider %q", i, p)
		}
		seen[p] = true
	}

	if c.Passkey.RPID == "" {
		return fmt.Errorf("passkey.rpID is required")
	}
	if len(c.Passkey.RPOrigins) == 0 {
		return fmt.Errorf("passkey.rpOrigins must list at least one origin")
	}

	if _, err := c.Auth.GetAccessTokenTTL(); err != nil {
		return fmt.Errorf("auth.accessTokenTTL: %w", err)
	}
	if _, err := c.Auth.GetRefreshTokenTTL(); err != nil {
		return fmt.Errorf("auth.refreshTokenTTL: %w", err)
	}

	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.maxRetries must not be negative")
	}
	if c.Sync.RetryBaseDelay != "" {
		if _, err := time.ParseDuration(c.Sync.RetryBaseDelay); err != nil {
			return fmt.Errorf("sync.retryBaseDelay: %w", err)
		}
	}

	if c.Database != nil {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
		if c.Database.ConnMaxLifetime != "" {
			if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
				return fmt.Errorf("database.connMaxLifetime: %w", err)
			}
		}
	}

	return nil
}
