package app

import (
	"context"
	"log/slog"

	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
)

// setupEventBus registers all event handlers with the configured bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	a.Dispatcher.Register(bus)
	a.setupActivityHandlers(bus, a.Deps.Logger)
}

// setupActivityHandlers logs every committed coin movement and top-up
// transition as one structured line.
func (a *App) setupActivityHandlers(bus eventbus.Bus, logger *slog.Logger) {
	for _, t := range []events.EventType{
		events.EventTypeCoinsCharged,
		events.EventTypeCoinsRefunded,
		events.EventTypeTopupSubmitted,
		events.EventTypeTopupApproved,
		events.EventTypeTopupRejected,
	} {
		bus.Register(t.String(), logActivity(logger))
	}
}

func logActivity(logger *slog.Logger) eventbus.HandlerFunc {
	return func(_ context.Context, e events.Event) error {
		logger.Info("Activity", "event", e.Type(), "payload", e)
		return nil
	}
}
