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

	"github.com/cloudwego/eino/components/embedding"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/embed"
	"github.com/starford/laguz/internal/ingest"
	"github.com/starford/laguz/internal/mcpserver"
	"github.com/starford/laguz/internal/retrieval"
	"github.com/starford/laguz/internal/store"
	"github.com/starford/laguz/internal/vector"
)

// runtime bundles the components every command needs: the store, the live
// index, the ingestion runner, and the retrieval service.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	live   *vector.Live
	runner *ingest.Runner
	svc    *retrieval.Service
}

func newRuntime(logW io.Writer, opts ...Option) (*runtime, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(logW, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	factory := func(ctx context.Context, model string) (embedding.Embedder, error) {
		return embed.New(ctx, embed.Config{
			Provider: cfg.Embedding.Provider,
			Model:    model,
			BaseURL:  cfg.Embedding.BaseURL,
			APIKey:   cfg.Embedding.APIKey,
		})
	}

	live := &vector.Live{}
	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		live:   live,
		runner: &ingest.Runner{
			Store:       db,
			Live:        live,
			NewEmbedder: factory,
			Logger:      logger,
			DBPath:      cfg.SQLite.Path,
		},
		svc: &retrieval.Service{
			Store:       db,
			Live:        live,
			NewEmbedder: factory,
		},
	}
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Error("store close error", slog.String("error", err.Error()))
	}
}

// warm loads the in-memory index from a previously built store. A store
// that was never ingested is fine; retrieval reports it as unavailable
// until an ingest run happens.
func (rt *runtime) warm(ctx context.Context) {
	if err := rt.runner.Reload(ctx); err != nil {
		rt.logger.Warn("index not loaded; run ingest to build the store",
			slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	rt.logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("embedding_model", cfg.Embedding.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt.warm(ctx)

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.Token)

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
		model, dim, err := rt.db.Meta()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store not built"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"model":  model,
			"dim":    dim,
		})
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			rt.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			rt.logger.Info("Context cancelled, initiating shutdown")
		}

		rt.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			rt.logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		rt.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	rt.logger.Info("Server stopped successfully")
	return nil
}

// RunIngest performs a one-shot ingestion of the configured vault.
func RunIngest(ctx context.Context, recreate bool, opts ...Option) error {
	rt, err := newRuntime(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	sum, err := rt.runner.Run(ctx, ingest.Options{
		Root:     rt.cfg.Vault.Path,
		Model:    rt.cfg.Embedding.Model,
		MaxChars: rt.cfg.Chunking.MaxChars,
		Recreate: recreate,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	rt.logger.Info("Ingestion complete",
		slog.Int("notes", sum.Notes),
		slog.Int("links", sum.Links),
		slog.Int("chunks", sum.Chunks),
		slog.Int("skipped", sum.Skipped))
	return nil
}

// RunMCP serves the retrieval tools over MCP stdio. Logs go to stderr so
// stdout stays a clean protocol channel.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(os.Stderr, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.warm(ctx)

	rt.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}
