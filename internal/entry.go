// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/jotgrid/internal/api"
	"github.com/starford/jotgrid/internal/archive"
	"github.com/starford/jotgrid/internal/logging"
	"github.com/starford/jotgrid/internal/mcpserver"
	"github.com/starford/jotgrid/internal/noteservice"
	"github.com/starford/jotgrid/internal/repository"
	"github.com/starford/jotgrid/internal/sse"
	"github.com/starford/jotgrid/internal/store"
)

type application struct {
	config     *Config
	configPath string
	logOutput  io.Writer
	version    string

	level  *slog.LevelVar
	logger *slog.Logger
}

func setup(opts []Option) (*application, error) {
	app := &application{
		logOutput: os.Stdout,
		version:   "dev",
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	app.level = new(slog.LevelVar)
	app.level.Set(app.config.App.LogLevel)
	app.logger = logging.New(app.logOutput, app.level, app.config.App.LogFormat)
	slog.SetDefault(app.logger)

	return app, nil
}

// openService opens the configured store and builds the note service on it.
// The returned close func releases the store.
func (a *application) openService(opts ...noteservice.Option) (*noteservice.Service, func() error, error) {
	cfg := a.config

	dao, err := store.New(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	opts = append([]noteservice.Option{noteservice.WithLogger(a.logger)}, opts...)
	svc := noteservice.NewService(repository.New(dao), opts...)
	return svc, dao.Close, nil
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := setup(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc, closeStore, err := app.openService(noteservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer closeStore()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker,
		api.RateLimit(cfg.App.HTTP.RateLimit.RPS, cfg.App.HTTP.RateLimit.Burst))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.App.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.App.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler)
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", readyHandler(broker))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if app.configPath != "" {
		g.Go(func() error {
			if err := WatchConfig(gCtx, app.configPath, app.level, logger); err != nil {
				logger.Warn("config watch disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// readyHandler reports readiness along with the number of connected SSE clients.
func readyHandler(broker *sse.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","sse_clients":%d}`, broker.ClientCount())
	}
}

// errShutdown cancels the group context so the config watcher stops too.
var errShutdown = errors.New("shutdown")

// ServeMCP exposes the note operations as MCP tools over stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := setup(opts)
	if err != nil {
		return err
	}

	svc, closeStore, err := app.openService()
	if err != nil {
		return err
	}
	defer closeStore()

	app.logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// PrintList runs one list operation and writes each status event it emits to
// w as a JSON line.
func PrintList(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := setup(opts)
	if err != nil {
		return err
	}

	svc, closeStore, err := app.openService()
	if err != nil {
		return err
	}
	defer closeStore()

	enc := json.NewEncoder(w)
	for st := range svc.List(ctx) {
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
	}
	return nil
}

// ExportArchive writes every stored note into dir as Markdown.
func ExportArchive(ctx context.Context, dir string, opts ...Option) (archive.Report, error) {
	return withArchive(ctx, dir, true, opts, archive.Export)
}

// ImportArchive saves every Markdown note file under dir into the store.
func ImportArchive(ctx context.Context, dir string, opts ...Option) (archive.Report, error) {
	return withArchive(ctx, dir, false, opts, archive.Import)
}

type archiveFunc func(context.Context, *noteservice.Service, *archive.Dir, *slog.Logger) (archive.Report, error)

func withArchive(ctx context.Context, dir string, create bool, opts []Option, fn archiveFunc) (archive.Report, error) {
	app, err := setup(opts)
	if err != nil {
		return archive.Report{}, err
	}

	d, err := archive.OpenDir(dir, create)
	if err != nil {
		return archive.Report{}, err
	}

	svc, closeStore, err := app.openService()
	if err != nil {
		return archive.Report{}, err
	}
	defer closeStore()

	rep, err := fn(ctx, svc, d, app.logger)
	if err != nil {
		return rep, err
	}
	app.logger.Info("archive done",
		slog.String("dir", dir),
		slog.Int("written", rep.Written),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("failed", rep.Failed))
	return rep, nil
}
