package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/infrastructure"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	defer cleanup()

	slog.Info("economy engine starting")
	if err := app.Run(ctx); err != nil {
		slog.Error("economy engine stopped with error", "error", err)
		cleanup()
		os.Exit(1)
	}
	slog.Info("economy engine stopped")
}

func logLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv("ECOMAKER_LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
