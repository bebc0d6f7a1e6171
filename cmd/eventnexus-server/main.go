// Package main provides the HTTP API server for EventNexus.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/api"
	"github.com/raphaelgruber/eventnexus-go/internal/app"
	"github.com/raphaelgruber/eventnexus-go/internal/config"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

func main() {
	// Parse flags
	snapshotFile := flag.String("snapshot", "", "serve a prebuilt snapshot file instead of the database")
	sourceFile := flag.String("source", "", "build snapshots from a fixture file instead of the database")
	wipeDB := flag.Bool("wipe", false, "wipe all platform data on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Logger is not set up yet.
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, cleanup := cfg.Logger()
	defer cleanup()

	logger.Info("starting eventnexus-server",
		"addr", cfg.HTTPAddr,
		"embed_provider", cfg.EmbedProvider,
		"llm_provider", cfg.LLMProvider,
	)

	opts := app.Options{Logger: logger}
	switch {
	case *snapshotFile != "":
		snap, err := snapshot.LoadSnapshot(*snapshotFile)
		if err != nil {
			logger.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		opts.Provider = snapshot.Fixed(snap)
	case *sourceFile != "":
		src, err := snapshot.LoadSource(*sourceFile)
		if err != nil {
			logger.Error("failed to load source", "error", err)
			os.Exit(1)
		}
		opts.Provider = snapshot.NewBuilder(src, logger)
	default:
		opts.ConnectDB = true
		opts.InitSchema = true
	}

	// Create services with all dependencies
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg, opts)
	cancel()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if a.DB() != nil && (*wipeDB || os.Getenv("EVENTNEXUS_WIPE_DB") == "true") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := a.DB().WipeData(ctx); err != nil {
			cancel()
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		cancel()
	}

	handler := api.NewHandler(a.Networking, a.Chat, a.Metrics, logger)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.Server(api.Options{
			CORSOrigins:        cfg.CORSOrigins,
			RateLimitPerSecond: cfg.RateLimitPerSecond,
			RateLimitBurst:     cfg.RateLimitBurst,
			ServiceName:        "eventnexus-server",
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second, // Long for generated answers and streams
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("API available", "addr", cfg.HTTPAddr, "backend", a.Chat.Health().Backend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
