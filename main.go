package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"autotag/internal/app"
	"autotag/internal/config"
	"autotag/internal/logger"
)

func main() {
	// Initialize structured logger
	log := logger.New(os.Stdout, slog.LevelInfo)
	slog.SetDefault(log)

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log = logger.New(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("app exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("app stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 2. Connect dependencies
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Warn("failed to close dependencies", "error", err)
		}
	}()

	// 3. Wire features
	a, err := app.New(cfg, deps, log)
	if err != nil {
		return err
	}

	log.Info("autotag started",
		"provider", cfg.InferenceProvider,
		"storage", cfg.StorageBackend,
		"journal", cfg.EnableJournal,
		"worker", cfg.EnableWorker,
	)

	// 4. Serve until shutdown
	return a.Run(ctx)
}
