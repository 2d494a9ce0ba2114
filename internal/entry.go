// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/viewday/vaultsync/internal/api"
	"github.com/viewday/vaultsync/internal/bridge"
	"github.com/viewday/vaultsync/internal/debounce"
	"github.com/viewday/vaultsync/internal/host"
	"github.com/viewday/vaultsync/internal/index"
	"github.com/viewday/vaultsync/internal/mcpserver"
	"github.com/viewday/vaultsync/internal/notes"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/storage"
	syncengine "github.com/viewday/vaultsync/internal/sync"
	"github.com/viewday/vaultsync/internal/vault"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	files, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize metadata cache.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, files, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// Persisted settings (rule set, widget id, note folders).
	mgr, err := settings.NewManager(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}

	// Engine over the document store adapter.
	store := vault.NewFSStore(files, db)
	engine := syncengine.New(store, logger)
	creator := notes.NewCreator(store)

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(engine, mgr).ServeStdio()
	}

	// WebSocket bridge to the remote surface.
	hub := bridge.NewHub(cfg.Bridge.AllowedOrigins, logger)
	defer hub.Close()

	shell := host.NewShell(logger, cfg.Host.Opener)
	disp := bridge.NewDispatcher(engine, mgr, creator, shell, hub, logger)
	hub.OnMessage = disp.Handle

	// Debounced rescan on vault changes.
	deb := debounce.New(cfg.Sync.Window(), disp.PushAll)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount REST mirror under /api.
	r.Mount("/api", api.NewRouter(engine, mgr, disp, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	// Bridge endpoint: protected by the origin allow-list, not by token auth.
	r.Get("/bridge", hub.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher feeding the debouncer.
	g.Go(func() error {
		index.Watch(gCtx, db, files, cfg.Vault.Path, logger, func(kind, path string) {
			deb.Trigger()
		})
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
