package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Gunvolt24/courtdesk/config"
	"github.com/Gunvolt24/courtdesk/internal/app"
	"github.com/Gunvolt24/courtdesk/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "courtdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg, syncLogger, err := logger.NewZapLogger(cfg.Logger.IsProd, cfg.Logger.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = syncLogger() }()

	a, cleanup, err := app.Bootstrap(ctx, &cfg, logg)
	if err != nil {
		logg.Errorf(ctx, "bootstrap failed: %v", err)
		return err
	}
	defer cleanup()

	return a.Run(ctx)
}
