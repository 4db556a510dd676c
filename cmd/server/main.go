// Command server runs the inkwell blog platform: document ingestion,
// embedding, and semantic search over an HTTP/SSE API.
//
// Configuration is layered: built-in defaults, then a YAML config file
// (-config flag, INKWELL_CONFIG, ./config.yaml, or
// /etc/inkwell/config.yaml), then environment overrides:
//
//	INKWELL_PORT              - Listen port
//	INKWELL_EMBEDDING_BACKEND - "ollama" or "hashing"
//	INKWELL_EMBEDDING_MODEL   - Embedding model ID
//	INKWELL_OLLAMA_URL        - Ollama endpoint
//	INKWELL_STORAGE           - "memory" or "postgres"
//	INKWELL_POSTGRES_DSN      - PostgreSQL connection string
//	INKWELL_CONTENT_DIR       - Markdown directory to watch (optional)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/inkwell-dev/inkwell/pkg/config"
	"github.com/inkwell-dev/inkwell/pkg/debug"
	"github.com/inkwell-dev/inkwell/pkg/embed"
	"github.com/inkwell-dev/inkwell/pkg/ingest"
	"github.com/inkwell-dev/inkwell/pkg/search"
	"github.com/inkwell-dev/inkwell/pkg/storage"
	"github.com/inkwell-dev/inkwell/pkg/storage/memory"
	"github.com/inkwell-dev/inkwell/pkg/storage/postgres"
	transporthttp "github.com/inkwell-dev/inkwell/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is a convenience for local development; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := debug.Init("", "")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if cats := debug.Categories(); len(cats) > 0 {
		logger.Info("debug categories enabled", "categories", cats)
	}

	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	logger.Info("embedding backend ready",
		"backend", cfg.Embedding.Backend,
		"model", cfg.Embedding.ModelID,
		"dimension", cfg.Embedding.Dimension)

	worker := embed.NewWorker(loader, embed.WorkerConfig{
		DefaultModelID: cfg.Embedding.ModelID,
		DefaultDevice:  cfg.Embedding.Device,
		Logger:         logger,
	})
	client := embed.NewClient(worker,
		embed.WithDefaultTimeout(cfg.Embedding.CallTimeout),
		embed.WithClientLogger(logger),
	)
	defer client.Dispose()

	chunker, err := ingest.NewChunker(ingest.ChunkerConfig{
		MaxTokens:     cfg.Ingest.MaxTokens,
		OverlapTokens: cfg.Ingest.OverlapTokens,
	})
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	svc, err := ingest.NewService(ingest.Config{
		Store:     store,
		Client:    client,
		Chunker:   chunker,
		ModelID:   cfg.Embedding.ModelID,
		Device:    cfg.Embedding.Device,
		Dimension: cfg.Embedding.Dimension,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating ingestion service: %w", err)
	}

	if cfg.Ingest.ContentDir != "" {
		watcher := ingest.NewWatcher(svc, cfg.Ingest.Debounce, logger)
		go func() {
			if err := watcher.Watch(ctx, cfg.Ingest.ContentDir); err != nil && ctx.Err() == nil {
				logger.Error("content watcher stopped", "error", err)
			}
		}()
		logger.Info("watching content directory", "dir", cfg.Ingest.ContentDir)
	}

	server := transporthttp.NewServer(
		transporthttp.Services{
			Searcher: search.NewSearcher(store, cfg.Embedding.Dimension, search.WithLogger(logger)),
			Embedder: search.NewQueryEmbedder(client),
			Ingest:   svc,
			Store:    store,
			Client:   client,
		},
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithMetrics(cfg.Observability.Metrics.Enabled, cfg.Observability.Metrics.Path),
		transporthttp.WithLogger(logger),
	)

	return server.ListenAndServe()
}

// newStore builds the configured document store.
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return postgres.New(connectCtx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			Dimension:      cfg.Embedding.Dimension,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return memory.New(cfg.Embedding.Dimension), nil
	}
}

// newLoader builds the configured embedding backend.
func newLoader(cfg *config.Config) (embed.Loader, error) {
	switch cfg.Embedding.Backend {
	case "hashing":
		return embed.NewHashingLoader(cfg.Embedding.Dimension), nil
	case "ollama":
		return embed.NewOllamaBackend(embed.OllamaConfig{
			BaseURL:   cfg.Embedding.BaseURL,
			Dimension: cfg.Embedding.Dimension,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
}
