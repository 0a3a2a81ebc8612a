package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// Notification events
	EventTypeNotificationRequested EventType = "Notification.Requested"

	// Ledger events, emitted after the owning transaction commits
	EventTypeCoinsCharged  EventType = "Coins.Charged"
	EventTypeCoinsRefunded EventType = "Coins.Refunded"

	// Top-up events
	EventTypeTopupSubmitted EventType = "Topup.Submitted"
	EventTypeTopupApproved  EventType = "Topup.Approved"
	EventTypeTopupRejected  EventType = "Topup.Rejected"
)

func (t EventType) String() string { return string(t) }
