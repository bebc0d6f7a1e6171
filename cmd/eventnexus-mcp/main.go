// Package main provides the entry point for the EventNexus MCP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/eventnexus-go/internal/app"
	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/raphaelgruber/eventnexus-go/internal/server"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
	"github.com/raphaelgruber/eventnexus-go/internal/tools"
)

const version = "0.1.0"

func main() {
	snapshotFile := flag.String("snapshot", "", "answer from a prebuilt snapshot file instead of the database")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := cfg.Logger()
	defer cleanup()

	// Log startup info
	logger.Info("eventnexus-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"embed_model", cfg.EmbedModel,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	opts := app.Options{Logger: logger}
	if *snapshotFile != "" {
		snap, err := snapshot.LoadSnapshot(*snapshotFile)
		if err != nil {
			logger.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		opts.Provider = snapshot.Fixed(snap)
	} else {
		opts.ConnectDB = true
		opts.InitSchema = true
	}

	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = a.Close(context.Background())
	}()

	// Create and setup server
	srv := server.New(version, logger)
	srv.Setup(a.Metrics)

	// Register tools
	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Networking: a.Networking,
		Chat:       a.Chat,
		Logger:     logger,
	})
	logger.Info("tools registered", "backend", a.Chat.Health().Backend)

	// Log ready state
	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
