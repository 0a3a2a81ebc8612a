package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
	"github.com/atollmatch/atollmatch/pkg/repository"
	"github.com/google/uuid"
)

// Dispatcher delivers NotificationRequested events through a Sender.
type Dispatcher struct {
	uow    repository.UnitOfWork
	sender config.Sender
	logger *slog.Logger
	seen   *eventbus.IdempotencyTracker
}

// NewDispatcher creates a Dispatcher delivering through deps.Sender.
func NewDispatcher(deps config.Deps) *Dispatcher {
	return &Dispatcher{
		uow:    deps.Uow,
		sender: deps.Sender,
		logger: deps.Logger,
		seen:   eventbus.NewIdempotencyTracker(),
	}
}

// Register subscribes the dispatcher to notification requests on bus. A
// redelivered request is sent at most once.
func (d *Dispatcher) Register(bus eventbus.Bus) {
	bus.Register(
		events.EventTypeNotificationRequested.String(),
		eventbus.WithIdempotency(d.Handle, d.seen, requestKey, "notification.dispatch", d.logger),
	)
}

func requestKey(e events.Event) string {
	if req, ok := e.(*events.NotificationRequested); ok && req.ID != uuid.Nil {
		return req.ID.String()
	}
	return ""
}

// Handle renders and sends one notification. Users without a linked chat
// are skipped silently.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	req, ok := e.(*events.NotificationRequested)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}
	logger := d.logger.With("userID", req.UserID, "kind", req.Kind)

	text, err := Render(req.Kind, req.Payload)
	if err != nil {
		logger.Warn("Handle skipped: render error", "error", err)
		return nil
	}

	repo, err := d.uow.UserRepository()
	if err != nil {
		return err
	}
	u, err := repo.Get(ctx, req.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Handle skipped: user not found")
		return nil
	}
	if err != nil {
		return err
	}
	if u.TelegramChatID == nil {
		logger.Debug("Handle skipped: no linked chat")
		return nil
	}
	if d.sender == nil {
		logger.Info("notification rendered without sender", "text", text)
		return nil
	}
	if err := d.sender.Send(*u.TelegramChatID, text); err != nil {
		logger.Error("Handle failed: send error", "error", err)
		return err
	}
	logger.Info("notification sent")
	return nil
}

// Render builds the message text for kind.
func Render(kind notification.Kind, payload map[string]any) (string, error) {
	var b strings.Builder
	switch kind {
	case notification.KindTopupApproved:
		fmt.Fprintf(&b, "Your top-up was approved: %v coins added.", value(payload, notification.KeyCoins))
	case notification.KindTopupRejected:
		b.WriteString("Your top-up was rejected.")
	case notification.KindCoinsAdded:
		fmt.Fprintf(&b, "%v coins were added to your wallet.", value(payload, notification.KeyCoins))
	case notification.KindCoinsRemoved:
		fmt.Fprintf(&b, "%v coins were removed from your wallet.", value(payload, notification.KeyCoins))
	default:
		return "", fmt.Errorf("%w: %q", notification.ErrUnknownKind, kind)
	}
	if balance, ok := payload[notification.KeyBalance]; ok {
		fmt.Fprintf(&b, " Balance: %v coins.", balance)
	}
	if note, ok := payload[notification.KeyNote].(string); ok && note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}
	return b.String(), nil
}

func value(payload map[string]any, key string) any {
	if v, ok := payload[key]; ok {
		return v
	}
	return "?"
}
