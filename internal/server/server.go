// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nebari-dev/codepad/internal/api"
	"github.com/nebari-dev/codepad/internal/api/handlers"
	"github.com/nebari-dev/codepad/internal/auth"
	"github.com/nebari-dev/codepad/internal/cache"
	"github.com/nebari-dev/codepad/internal/config"
	"github.com/nebari-dev/codepad/internal/content"
	"github.com/nebari-dev/codepad/internal/db"
	"github.com/nebari-dev/codepad/internal/logger"
	"github.com/nebari-dev/codepad/internal/models"
	"github.com/nebari-dev/codepad/internal/rbac"
	"github.com/nebari-dev/codepad/internal/store"
)

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Version string // Version string to report
}

// Run starts the server and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from CLI flag if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	log := slog.Default()
	log.Info("Starting codepad server", "version", handlers.Version, "mode", appCfg.Server.Mode)

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Warn("Failed to close database", "error", err)
		}
	}()
	log.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Database migrations completed")

	if err := rbac.InitEnforcer(database, log); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	serverID, err := db.GetOrCreateServerID(database)
	if err != nil {
		return fmt.Errorf("failed to initialize server ID: %w", err)
	}
	log.Info("Server ID initialized", "server_id", serverID)

	if err := db.PutSetting(database, models.SettingLastVersion, handlers.Version); err != nil {
		log.Warn("Failed to record server version", "error", err)
	}

	if err := db.CreateDefaultAdmin(database, db.AdminSeedFromEnv()); err != nil {
		return fmt.Errorf("failed to create default admin user: %w", err)
	}

	readCache, err := cache.New(appCfg.Cache.Type, appCfg.Cache.ValkeyAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if readCache != nil {
		defer readCache.Close()
	}
	log.Info("Cache initialized", "type", appCfg.Cache.Type)
	if appCfg.Cache.Type == "memory" && appCfg.Database.Driver != "sqlite" {
		log.Warn("The memory cache is invalidated per process; use cache.type=valkey or none when replicas share the database")
	}

	generate, err := content.FromConfig(appCfg.Workspace.DefaultContent)
	if err != nil {
		return err
	}

	workspaces := store.New(database,
		store.WithContentGenerator(generate),
		store.WithCache(readCache, appCfg.Cache.TTL),
		store.WithLockedSaves(appCfg.Workspace.EnforceLockOnSave),
		store.WithLogger(log),
	)

	authenticator := auth.NewBasicAuthenticator(database, appCfg.Auth.JWTSecret)
	router := api.NewRouter(appCfg, database, workspaces, authenticator, log)

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg)
}
