// Package notification turns ledger outcomes into user-facing messages.
//
// Producers call Notifier.Notify after their unit of work committed. The
// request travels on the event bus and a Dispatcher renders and delivers
// it, so a slow or failing chat provider never holds a transaction open.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
	"github.com/google/uuid"
)

// Notifier publishes notification requests. It is best-effort: failures
// are logged and never returned.
type Notifier struct {
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewNotifier creates a Notifier publishing on deps.EventBus.
func NewNotifier(deps config.Deps) *Notifier {
	return &Notifier{bus: deps.EventBus, logger: deps.Logger}
}

// Notify asks for kind to be delivered to userID.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, kind notification.Kind, payload map[string]any) {
	logger := n.logger.With("userID", userID, "kind", kind)
	if !kind.Valid() {
		logger.Warn("Notify skipped: unknown kind")
		return
	}
	if n.bus == nil {
		logger.Warn("Notify skipped: no event bus configured")
		return
	}
	err := n.bus.Emit(ctx, &events.NotificationRequested{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("Notify failed: emit error", "error", err)
	}
}
