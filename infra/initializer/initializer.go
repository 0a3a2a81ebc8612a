package initializer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/atollmatch/atollmatch/infra"
	infra_eventbus "github.com/atollmatch/atollmatch/infra/eventbus"
	"github.com/atollmatch/atollmatch/infra/notifier"
	infra_repository "github.com/atollmatch/atollmatch/infra/repository"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
)

// InitializeDependencies builds the logger, database, unit of work, event
// bus and message sender. The returned cleanup releases them.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	cleanup func() error,
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &config.Deps{Logger: logger, Config: cfg}
	var closers []func() error
	cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, sqlDB.Close)

	if err := infra.RunMigrations(db, cfg.DB, logger); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize unit of work
	deps.Uow = infra_repository.NewUoW(db)

	// Initialize event bus
	bus, err := initEventBus(cfg, logger)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	if c, ok := bus.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}
	deps.EventBus = bus

	// Initialize message sender
	deps.Sender, err = initSender(cfg, logger)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	return deps, cleanup, nil
}

// initEventBus picks the Redis Streams bus when REDIS_URL is set and the
// server answers, and the in-process async bus otherwise.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		logger.Info("Using in-memory async event bus")
		return infra_eventbus.NewWithMemoryAsync(logger), nil
	}
	if cfg.Redis.Stream == "" || cfg.Redis.Group == "" {
		return nil, errors.New("redis event bus requires REDIS_STREAM and REDIS_GROUP")
	}
	bus, err := infra_eventbus.NewWithRedis(cfg.Redis.URL, cfg.Redis.Stream, cfg.Redis.Group, events.EventTypes, logger)
	if err != nil {
		logger.Warn("Redis event bus unavailable, falling back to in-memory async bus", "error", err)
		return infra_eventbus.NewWithMemoryAsync(logger), nil
	}
	logger.Info("Using Redis event bus", "stream", cfg.Redis.Stream, "group", cfg.Redis.Group)
	return bus, nil
}

func initSender(cfg *config.App, logger *slog.Logger) (config.Sender, error) {
	if cfg.Telegram == nil || cfg.Telegram.BotToken == "" {
		logger.Info("Telegram bot token not set, notifications are logged only")
		return notifier.NewLogSender(logger), nil
	}
	sender, err := notifier.NewTelegram(cfg.Telegram, "", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram sender: %w", err)
	}
	return sender, nil
}
