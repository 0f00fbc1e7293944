package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bloomwell/bloom/pkg/app"
	"github.com/bloomwell/bloom/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer a.Close()

	logger.Info("starting bloom server", "addr", cfg.ListenAddr, "backend", cfg.Backend, "db", cfg.DBPath)
	if err := a.Serve(ctx); err != nil {
		logger.Error("server error", "err", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("bloom server stopped")
}
