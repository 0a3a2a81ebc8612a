// Package eventbus defines the contract for publishing domain events and
// subscribing handlers to them.
package eventbus

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/domain/events"
)

// HandlerFunc handles one event. A returned error is logged by the bus;
// it never reaches the emitter.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus publishes events to the handlers registered for their type.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType string, handler HandlerFunc)
}
