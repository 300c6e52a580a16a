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

	"github.com/mjott/hackshelf/internal/api"
	"github.com/mjott/hackshelf/internal/catalog"
	"github.com/mjott/hackshelf/internal/gate"
	"github.com/mjott/hackshelf/internal/hackservice"
	"github.com/mjott/hackshelf/internal/ingest"
	"github.com/mjott/hackshelf/internal/library"
	"github.com/mjott/hackshelf/internal/mcpserver"
	"github.com/mjott/hackshelf/internal/query"
	"github.com/mjott/hackshelf/internal/replicate"
	"github.com/mjott/hackshelf/internal/sse"
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
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("library_path", cfg.Library.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the artifact library.
	lib, err := library.NewFS(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("init library: %w", err)
	}

	// Open the catalog and start the write scheduler.
	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	sched := catalog.NewScheduler(store, cfg.Catalog.FlushDelay(), logger)
	defer sched.Close()

	// Domain components.
	resolver := catalog.NewResolver(store, sched, logger)
	replicator := replicate.New(lib, cfg.Library.MultiType.Enabled, cfg.Library.MultiType.Mode, logger)
	pipeline := ingest.New(store, resolver, replicator, sched, logger)
	queries := query.NewLayer(store)

	// SSE broker and the advisory download gate.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	dl := gate.New()
	dl.Subscribe(broker.PublishDownloadState)

	svc := hackservice.NewService(store, sched, queries, broker, logger)

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	apiRouter := api.NewRouter(svc, pipeline, dl, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the library for artifacts removed out-of-band.
	g.Go(func() error {
		err := library.Watch(gCtx, lib, logger, func(exists func(string) bool) {
			if store.ReconcileArtifacts(exists) {
				sched.MarkDirty()
			}
		})
		if err != nil {
			logger.Warn("watcher failed", slog.String("error", err.Error()))
		}
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

		// Flush in-flight edits before the process goes away.
		if err := sched.ForceSave(); err != nil {
			logger.Error("final save failed, changes lost only from this session",
				slog.String("error", err.Error()))
		}

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
