// Package internal wires configuration, logging, storage and rendering
// into the folio commands.
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

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/catalogdb"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
)

// runtime holds the collaborators built once per command.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	store    *storage.FS
	snapshot catalogdb.Snapshot
	svc      *catalog.Service
	app      *application
}

func (rt *runtime) Close() {
	if rt.snapshot != nil {
		if err := rt.snapshot.Close(); err != nil {
			rt.logger.Warn("close snapshot failed", slog.String("error", err.Error()))
		}
	}
}

// NewLogger builds the process logger. Logs always go to stderr so that
// stdout stays free for command output and the MCP stdio transport.
func NewLogger(cfg ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func setup(opts []Option) (*runtime, error) {
	app := &application{stdout: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := NewLogger(cfg.App)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("catalog_root", cfg.Catalog.Root),
		slog.String("assets_dir", cfg.Catalog.AssetsDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Catalog.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	assets := render.DefaultAssets()
	if cfg.Catalog.AssetsDir != "" {
		assets = os.DirFS(cfg.Catalog.AssetsDir)
	}
	renderer, err := render.New(assets)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: store, app: app}
	if cfg.SQLite.Path != "" {
		db, err := catalogdb.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init snapshot: %w", err)
		}
		rt.snapshot = db
	}
	rt.svc = catalog.NewService(store, renderer, rt.snapshot, logger)
	return rt, nil
}

// Add registers the given files in the catalog.
func Add(ctx context.Context, files []string, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, err = rt.svc.Add(ctx, files)
	return err
}

// Index rebuilds all index pages under the catalog root.
func Index(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, err = rt.svc.Index(ctx)
	return err
}

// Watch keeps the index pages up to date until ctx is cancelled or a
// shutdown signal arrives.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.svc.Watch(ctx, rt.store.Root(), nil)
}

// Lookup prints the path of the document registered under id.
func Lookup(_ context.Context, id string, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.snapshot == nil {
		return apperr.ErrNoSnapshot
	}
	row, err := rt.snapshot.Lookup(id)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", id, err)
	}
	_, err = fmt.Fprintln(rt.app.stdout, row.Path)
	return err
}

// ServeMCP answers catalog lookups over the MCP stdio transport.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.snapshot == nil {
		return apperr.ErrNoSnapshot
	}
	return mcpserver.New(rt.snapshot, rt.app.version).ServeStdio()
}

// newHTTPHandler builds the root router of the serve command: liveness
// check, lookup API and the static catalog tree.
func newHTTPHandler(rt *runtime) http.Handler {
	cfg := rt.cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(rt.snapshot, cfg.Auth.AuthEnabled(), cfg.Auth.Token))
	r.Handle("/*", api.StaticHandler(rt.store.Root()))
	return r
}

// Serve publishes the catalog root and the lookup API over HTTP.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	logger := rt.logger

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			slog.String("address", cfg.App.HTTP.Address()),
			slog.String("catalog_root", rt.store.Root()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}
