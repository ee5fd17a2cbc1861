// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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
	"golang.org/x/sync/errgroup"

	"github.com/starford/arbor/internal/api"
	"github.com/starford/arbor/internal/clipboard"
	"github.com/starford/arbor/internal/inbox"
	"github.com/starford/arbor/internal/instant"
	"github.com/starford/arbor/internal/mcpserver"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/sse"
	"github.com/starford/arbor/internal/storage"
	"github.com/starford/arbor/internal/store"
	"github.com/starford/arbor/internal/tui"
)

const treeThrottle = time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}
	return app, nil
}

// logger installs a JSON logger writing to w as the default.
func (app *application) logger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openStore opens the database and repairs its tree bookkeeping.
func (app *application) openStore(ctx context.Context, logger *slog.Logger) (*store.DB, error) {
	db, err := store.Open(app.config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	fixed, err := db.Repair(ctx, logger)
	if err != nil {
		logger.Warn("store repair failed", slog.String("error", err.Error()))
	} else if fixed > 0 {
		logger.Info("store repaired", slog.Int("notes", fixed))
	}
	return db, nil
}

// newService builds the note service over db.
func (app *application) newService(ctx context.Context, db *store.DB, events noteservice.Events, logger *slog.Logger) (*noteservice.Service, error) {
	cfg := app.config
	loc, err := cfg.Dates.Location()
	if err != nil {
		return nil, err
	}
	svcCfg := noteservice.Config{
		MaxDepth: cfg.Tree.MaxDepth,
		Indent:   cfg.Tree.Indent,
		Resolver: instant.New(instant.WithLocation(loc), instant.WithMonthFirst(cfg.Dates.MonthFirst)),
		Events:   events,
		Logger:   logger,
	}
	if cfg.Clipboard.System {
		svcCfg.Sink = clipboard.SystemSink{}
	}
	svc, err := noteservice.New(ctx, db, svcCfg)
	if err != nil {
		return nil, fmt.Errorf("init note service: %w", err)
	}
	return svc, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("max_depth", cfg.Tree.MaxDepth),
		slog.Bool("inbox", cfg.Inbox.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := app.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(treeThrottle)
	defer broker.Close()

	svc, err := app.newService(ctx, db, broker, logger)
	if err != nil {
		return err
	}

	var exports storage.Provider
	if cfg.Exports.Path != "" {
		if exports, err = storage.NewFS(cfg.Exports.Path); err != nil {
			return fmt.Errorf("init exports dir: %w", err)
		}
	}

	var ib *inbox.Inbox
	if cfg.Inbox.Enabled {
		files, err := storage.NewFS(cfg.Inbox.Path)
		if err != nil {
			return fmt.Errorf("init inbox dir: %w", err)
		}
		ib = inbox.New(files, svc, inbox.Config{
			ParentID: cfg.Inbox.ParentID,
			Debounce: cfg.Inbox.Debounce,
			Logger:   logger,
		})
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, exports)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.GetNote(req.Context(), models.RootID); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if ib != nil {
		g.Go(func() error {
			if n, err := ib.Sync(gCtx); err != nil {
				logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
			} else if n > 0 {
				logger.Info("inbox files imported", slog.Int("files", n))
			}
			if err := ib.Watch(gCtx); err != nil {
				logger.Error("inbox watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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
		// Stop the inbox watcher along with the server.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunTUI opens the terminal outline on the configured database. Logs go to
// app.log_file, or nowhere when it is unset.
func RunTUI(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	out := io.Discard
	if path := app.config.App.LogFile; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := app.logger(out)

	db, err := app.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := app.newService(ctx, db, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, svc, logger)
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger(os.Stderr)

	db, err := app.openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := app.newService(ctx, db, nil, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting MCP server on stdio", slog.String("version", app.version))
	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
