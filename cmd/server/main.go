package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atollmatch/atollmatch/infra/initializer"
	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		err = errors.Join(err, cleanup())
	}()
	logger := deps.Logger

	a := app.New(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeded, err := a.PricingService.EnsureDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed pricing: %w", err)
	}
	if seeded {
		logger.Info("Pricing defaults written")
	}

	fiberApp := webapi.SetupApp(a)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		return shutdown(fiberApp.ShutdownWithTimeout, logger)
	}
}

func shutdown(fn func(time.Duration) error, logger *slog.Logger) error {
	if err := fn(10 * time.Second); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		return err
	}
	return nil
}
