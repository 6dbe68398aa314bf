package main

import (
	"context"
	"embed"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/fundbook/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg := config.Load()
	setupLogger(cfg)

	app := &cli.App{
		Name:  "fundbook",
		Usage: "NAV, ownership and performance-fee snapshots for an investment fund",
		Commands: []*cli.Command{
			serveCommand(cfg),
			migrateCommand(cfg),
			navCommand(cfg),
			ownershipCommand(cfg),
			snapshotCommand(cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("fundbook failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
