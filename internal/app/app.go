// Package app wires the EventNexus engine from configuration.
// It serves as dependency injection for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/eventnexus-go/internal/answer"
	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/raphaelgruber/eventnexus-go/internal/db"
	"github.com/raphaelgruber/eventnexus-go/internal/embedding"
	"github.com/raphaelgruber/eventnexus-go/internal/llm"
	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/networking"
	"github.com/raphaelgruber/eventnexus-go/internal/retrieval"
	"github.com/raphaelgruber/eventnexus-go/internal/service"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

// App holds the services built from one configuration.
type App struct {
	Networking *service.NetworkingService
	Chat       *service.ChatService
	Metrics    *metrics.Collector
	Logger     *slog.Logger

	db *db.Client
}

// Options selects the snapshot provider. Exactly one of Provider and
// ConnectDB is normally set; neither leaves chat without a snapshot source.
type Options struct {
	// Provider supplies snapshots directly (a file or fixture).
	Provider snapshot.Provider
	// ConnectDB reads snapshots from SurrealDB using the configured connection.
	ConnectDB bool
	// InitSchema defines the platform tables after connecting.
	InitSchema bool
	Logger     *slog.Logger
}

// New creates the services with all dependencies.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Create metrics collector for runtime statistics
	mc := metrics.NewCollector()

	a := &App{Metrics: mc, Logger: logger}

	provider := opts.Provider
	if opts.ConnectDB {
		dbClient, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger, mc)
		if err != nil {
			return nil, err
		}
		if opts.InitSchema {
			if err := dbClient.InitSchema(ctx); err != nil {
				dbClient.Close(ctx)
				return nil, err
			}
		}
		a.db = dbClient
		provider = snapshot.NewBuilder(dbClient, logger)
	}

	scorer, err := networking.NewScorer(networking.Weights(cfg.Weights))
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("scorer weights: %w", err)
	}

	// Initialize LLM components. Both are optional.
	handle := embedding.Disabled()
	if cfg.EmbedProvider != config.ProviderNone && cfg.EmbedProvider != "" {
		factory := embedding.FromConfig(cfg)
		handle = embedding.NewHandle(func(ctx context.Context) (embedding.Embedder, error) {
			e, err := factory(ctx)
			if err != nil {
				return nil, err
			}
			return embedding.Instrument(e, mc), nil
		}, logger)
	}

	var model *llm.Model
	m, err := llm.NewModel(cfg)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		logger.Debug("answer generation disabled, using extractive answers")
	case err != nil:
		a.Close(ctx)
		return nil, err
	default:
		model = m.WithUsage(mc)
	}

	engine := retrieval.NewEngine(ctx, handle, retrieval.Options{
		TopK:         cfg.TopK,
		DenseTimeout: cfg.DenseTimeout,
		Recorder:     mc,
	}, logger)

	deps := service.ChatDeps{
		Provider: provider,
		Engine:   engine,
		Metrics:  mc,
		Logger:   logger,
	}
	composerOpts := answer.Options{
		TopK:           cfg.TopK,
		MinRelevance:   cfg.MinRelevance,
		MaxContextDocs: cfg.MaxContextDocs,
	}
	if model != nil {
		deps.Composer = answer.New(engine, model, composerOpts, logger)
		deps.Streamer = model
	} else {
		deps.Composer = answer.New(engine, nil, composerOpts, logger)
	}

	logger.Debug("chat components ready",
		"embedder_ready", handle.Ready(),
		"generator", deps.Composer.HasGenerator(),
	)

	a.Networking = service.NewNetworkingService(networking.NewRecommender(scorer), cfg.NetworkLimit, mc, logger)
	a.Chat = service.NewChatService(deps)
	return a, nil
}

// DB returns the database client, or nil when the app was built without one.
func (a *App) DB() *db.Client {
	return a.db
}

// Close closes all connections.
func (a *App) Close(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close(ctx)
	}
	return nil
}
