package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"golang.org/x/sync/singleflight"
)

// KeyFunc extracts an idempotency key from an event. An empty key
// disables the check for that event.
type KeyFunc func(events.Event) string

// IdempotencyTracker remembers the keys of events a handler completed.
type IdempotencyTracker struct {
	done     sync.Map
	inflight singleflight.Group
}

func NewIdempotencyTracker() *IdempotencyTracker {
	return &IdempotencyTracker{}
}

// Seen reports whether key completed successfully.
func (t *IdempotencyTracker) Seen(key string) bool {
	_, ok := t.done.Load(key)
	return ok
}

// WithIdempotency wraps handler so each key is handled successfully at
// most once. Concurrent deliveries of one key share a single attempt; a
// failed attempt leaves the key unmarked so a redelivery retries it.
func WithIdempotency(
	handler HandlerFunc,
	tracker *IdempotencyTracker,
	key KeyFunc,
	name string,
	logger *slog.Logger,
) HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		k := key(e)
		if k == "" {
			return handler(ctx, e)
		}
		if tracker.Seen(k) {
			logger.Debug("Duplicate event skipped", "handler", name, "type", e.Type(), "key", k)
			return nil
		}
		_, err, _ := tracker.inflight.Do(k, func() (any, error) {
			if tracker.Seen(k) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.done.Store(k, struct{}{})
			return nil, nil
		})
		return err
	}
}
