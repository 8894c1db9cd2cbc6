package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mintwell/mintwell-server/internal/api"
	v1 "github.com/mintwell/mintwell-server/internal/api/v1"
	"github.com/mintwell/mintwell-server/internal/auth"
	"github.com/mintwell/mintwell-server/internal/compliance"
	"github.com/mintwell/mintwell-server/internal/config"
	"github.com/mintwell/mintwell-server/internal/db"
	"github.com/mintwell/mintwell-server/internal/passkey"
	"github.com/mintwell/mintwell-server/internal/provider"
	"github.com/mintwell/mintwell-server/internal/service"
	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
	syncer "github.com/mintwell/mintwell-server/internal/sync"
	"github.com/mintwell/mintwell-server/internal/tax"
	"github.com/mintwell/mintwell-server/internal/telemetry"
	"github.com/mintwell/mintwell-server/pkg/logger"
	"github.com/mintwell/mintwell-server/pkg/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mintwell API server",
	Long: `Start the API server serving authentication, transaction sync,
sync health, provider health, compliance and tax endpoints.

The server requires a configuration file (--config) that specifies the
provider fallback chain, token issuance, passkey relying party and
database connection settings.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 30 * time.Second // Sync runs pull full provider feeds
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 35 * time.Second // Must exceed serverRequestTimeout
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	logger.Infof("Starting mintwell API server on %s", address)

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (providers: %v)", configPath, cfg.GetProviders())

	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	users := store.NewUserStore(pool)
	accounts := store.NewAccountStore(pool)
	transactions := store.NewTransactionStore(pool)
	credentials := store.NewCredentialStore(pool)
	devices := store.NewDeviceStore(pool)
	resetCodes := store.NewResetCodeStore(pool)
	cursors := store.NewCursorStore(pool)
	audit := store.NewAuditStore(pool)

	// The status cache is in-memory; an optional snapshot carries it
	// across restarts.
	statuses := status.NewStore()
	var snapshots *status.FilePersistence
	if cfg.StatusSnapshotDir != "" {
		snapshots = status.NewFilePersistence(cfg.StatusSnapshotDir)
		records, err := snapshots.LoadSnapshot()
		if err != nil {
			logger.Warnf("Failed to load status snapshot, starting empty: %v", err)
		} else {
			statuses.Restore(records)
			logger.Infof("Restored sync status for %d users", len(records))
		}
	}

	registry := provider.NewRegistryWithProviders(cfg.GetProviders())

	// Provider integrations run against the sandbox backends; each
	// configured provider gets a client.
	clients := make([]syncer.Client, 0, len(cfg.GetProviders()))
	for _, id := range cfg.GetProviders() {
		clients = append(clients, syncer.NewSandboxClient(id))
	}

	engine, err := syncer.NewEngine(clients, registry, statuses, accounts, transactions, cursors, cfg.Sync)
	if err != nil {
		return fmt.Errorf("failed to create sync engine: %w", err)
	}

	telemetryProvider, err := telemetry.NewProvider(&telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: versions.GetVersionInfo().Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Failed to shut down telemetry: %v", err)
		}
	}()

	if cfg.Telemetry.Enabled {
		syncMetrics, err := telemetry.NewSyncMetrics(telemetryProvider.MeterProvider())
		if err != nil {
			return fmt.Errorf("failed to create sync metrics: %w", err)
		}
		engine.WithMetrics(syncMetrics)
	}

	secret, err := cfg.Auth.GetJWTSecret()
	if err != nil {
		return fmt.Errorf("failed to load JWT secret: %w", err)
	}
	accessTTL, err := cfg.Auth.GetAccessTokenTTL()
	if err != nil {
		return err
	}
	refreshTTL, err := cfg.Auth.GetRefreshTokenTTL()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenProvider(secret, accessTTL, refreshTTL)
	if err != nil {
		return fmt.Errorf("failed to create token provider: %w", err)
	}

	passkeys, err := passkey.NewService(cfg.Passkey, users, credentials)
	if err != nil {
		return fmt.Errorf("failed to create passkey service: %w", err)
	}

	routes := v1.Config{
		SyncHealth:   service.NewSyncHealthService(statuses, status.NewReporter(), users),
		Providers:    registry,
		Auth:         auth.NewService(users, resetCodes, tokens, nil),
		Tokens:       tokens,
		Passkeys:     passkeys,
		Engine:       engine,
		Compliance:   compliance.NewService(users, accounts, transactions, devices, audit, statuses),
		Tax:          tax.NewService(transactions, audit),
		Accounts:     accounts,
		Transactions: transactions,
		Devices:      devices,
		Users:        users,
		Readiness:    pool.Ping,
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(serverRequestTimeout),
		api.LoggingMiddleware,
	}
	serverOpts := []api.ServerOption{}
	if cfg.Telemetry.Enabled {
		metricsMiddleware, err := telemetry.MetricsMiddleware(telemetryProvider.MeterProvider())
		if err != nil {
			return fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		middlewares = append(middlewares, metricsMiddleware)
		serverOpts = append(serverOpts, api.WithMetricsHandler(telemetryProvider.Handler()))
	}
	serverOpts = append(serverOpts, api.WithMiddlewares(middlewares...))

	router := api.NewServer(routes, serverOpts...)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	if snapshots != nil {
		if err := snapshots.SaveSnapshot(statuses.Snapshot()); err != nil {
			logger.Errorf("Failed to save status snapshot: %v", err)
		}
	}

	logger.Info("Server shutdown complete")
	return nil
}
