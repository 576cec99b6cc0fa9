package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/itsjustmithun/ai-council/internal/api"
	"github.com/itsjustmithun/ai-council/internal/bus"
	"github.com/itsjustmithun/ai-council/internal/config"
	"github.com/itsjustmithun/ai-council/internal/council"
	"github.com/itsjustmithun/ai-council/internal/openrouter"
	"github.com/itsjustmithun/ai-council/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("council starting", "port", cfg.Port, "models", cfg.CouncilModels, "chairman", cfg.ChairmanModel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenRouter client
	if cfg.OpenRouterAPIKey == "" {
		slog.Error("OPENROUTER_API_KEY is required")
		os.Exit(1)
	}
	client := openrouter.NewClient(cfg.OpenRouterAPIKey)

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Event bus (optional — the council works without NATS, just no
	// lifecycle events for other services)
	var publisher api.Publisher
	if cfg.NatsURL != "" {
		busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		publisher = busClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without lifecycle events")
	}

	// Council
	cl := council.New(client, cfg.CouncilModels, cfg.ChairmanModel, slog.Default())

	title := func(ctx context.Context, query string) string {
		return council.GenerateTitle(ctx, client, cfg.TitleModel, query)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, db, cl, title, publisher, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("council ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("council stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
