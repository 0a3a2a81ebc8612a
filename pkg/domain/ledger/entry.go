// Package ledger holds the coin ledger's domain types: the append-only
// entries that explain every balance change and the errors raised when a
// change cannot be applied.
package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrZeroDelta is returned when an entry would not change the balance.
	ErrZeroDelta = errors.New("ledger delta must be nonzero")
	// ErrInvalidReason is returned for a reason outside the known set.
	ErrInvalidReason = errors.New("invalid ledger reason")
	// ErrMissingUser is returned when an entry has no owner.
	ErrMissingUser = errors.New("ledger entry requires a user")
	// ErrIncompleteRef is returned when only one half of a reference is set.
	ErrIncompleteRef = errors.New("ledger reference requires both table and id")
)

// Reason is the business cause of a balance change.
type Reason string

const (
	ReasonPost    Reason = "POST"
	ReasonConnect Reason = "CONNECT"
	ReasonTopup   Reason = "TOPUP"
	ReasonRefund  Reason = "REFUND"
	ReasonOther   Reason = "OTHER"
)

// Valid reports whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case ReasonPost, ReasonConnect, ReasonTopup, ReasonRefund, ReasonOther:
		return true
	}
	return false
}

// Reference tables used by the entities that cause ledger entries.
const (
	RefTablePosts       = "posts"
	RefTableConnections = "connection_requests"
	RefTableTopups      = "topups"
	RefTableUsers       = "users"
)

// Ref is a weak reference to the entity that caused an entry. It is used
// for lookup only; the ledger never owns the referenced row.
type Ref struct {
	Table string
	ID    uuid.UUID
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Table == "" && r.ID == uuid.Nil
}

// Entry is one immutable, signed balance change.
type Entry struct {
	ID          int64
	UserID      uuid.UUID
	Delta       int64
	Reason      Reason
	Ref         Ref
	Description string
	CreatedAt   time.Time
}

// IsCredit reports whether the entry increased the balance.
func (e *Entry) IsCredit() bool { return e.Delta > 0 }

// NewEntry validates the invariants of a new entry. The ID and CreatedAt
// are assigned by the store on append.
func NewEntry(userID uuid.UUID, delta int64, reason Reason, ref Ref, description string) (*Entry, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if delta == 0 {
		return nil, ErrZeroDelta
	}
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	if !ref.IsZero() && (ref.Table == "" || ref.ID == uuid.Nil) {
		return nil, ErrIncompleteRef
	}
	return &Entry{
		UserID:      userID,
		Delta:       delta,
		Reason:      reason,
		Ref:         ref,
		Description: strings.TrimSpace(description),
	}, nil
}
