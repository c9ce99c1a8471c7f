package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ozanyurtsever/shopcore/pkg/logger"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/app"
	"github.com/ozanyurtsever/shopcore/services/cart/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cart service failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l := logger.New("cart-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, l)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	return application.Run(ctx)
}
