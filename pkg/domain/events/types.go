// Package events holds the domain events carried by the event bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/atollmatch/atollmatch/pkg/domain/notification"
)

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}

// EventTypes lets out-of-process buses rebuild a concrete event from its
// type name.
var EventTypes = map[string]func() Event{
	EventTypeNotificationRequested.String(): func() Event { return &NotificationRequested{} },
	EventTypeCoinsCharged.String():          func() Event { return &CoinsCharged{} },
	EventTypeCoinsRefunded.String():         func() Event { return &CoinsRefunded{} },
	EventTypeTopupSubmitted.String():        func() Event { return &TopupSubmitted{} },
	EventTypeTopupApproved.String():         func() Event { return &TopupApproved{} },
	EventTypeTopupRejected.String():         func() Event { return &TopupRejected{} },
}

// NotificationRequested asks the dispatcher to deliver a message to a user.
type NotificationRequested struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Kind      notification.Kind `json:"kind"`
	Payload   map[string]any    `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func (e *NotificationRequested) Type() string { return EventTypeNotificationRequested.String() }

// CoinsCharged is emitted after a coin-costing action committed.
type CoinsCharged struct {
	UserID   uuid.UUID `json:"user_id"`
	EntryID  int64     `json:"entry_id"`
	Action   string    `json:"action"`
	RefTable string    `json:"ref_table"`
	RefID    uuid.UUID `json:"ref_id"`
	Cost     int64     `json:"cost"`
	Balance  int64     `json:"balance"`
}

func (e *CoinsCharged) Type() string { return EventTypeCoinsCharged.String() }

// CoinsRefunded is emitted after a charge was reversed.
type CoinsRefunded struct {
	UserID   uuid.UUID `json:"user_id"`
	EntryID  int64     `json:"entry_id"`
	RefTable string    `json:"ref_table"`
	RefID    uuid.UUID `json:"ref_id"`
	Amount   int64     `json:"amount"`
	AdminID  uuid.UUID `json:"admin_id"`
}

func (e *CoinsRefunded) Type() string { return EventTypeCoinsRefunded.String() }

// TopupSubmitted is emitted when a user files a new top-up claim.
type TopupSubmitted struct {
	TopupID   uuid.UUID `json:"topup_id"`
	UserID    uuid.UUID `json:"user_id"`
	AmountMvr string    `json:"amount_mvr"`
}

func (e *TopupSubmitted) Type() string { return EventTypeTopupSubmitted.String() }

// TopupApproved is emitted once the credit for a top-up committed.
type TopupApproved struct {
	TopupID uuid.UUID `json:"topup_id"`
	UserID  uuid.UUID `json:"user_id"`
	AdminID uuid.UUID `json:"admin_id"`
	Coins   int64     `json:"coins"`
	Balance int64     `json:"balance"`
}

func (e *TopupApproved) Type() string { return EventTypeTopupApproved.String() }

// TopupRejected is emitted once a top-up rejection committed.
type TopupRejected struct {
	TopupID uuid.UUID `json:"topup_id"`
	UserID  uuid.UUID `json:"user_id"`
	AdminID uuid.UUID `json:"admin_id"`
	Note    string    `json:"note"`
}

func (e *TopupRejected) Type() string { return EventTypeTopupRejected.String() }
