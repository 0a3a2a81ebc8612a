package balance

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads and mutates the stored coin counter of a user.
type Repository interface {
	// Get returns the current balance.
	Get(ctx context.Context, userID uuid.UUID) (int64, error)

	// ApplyDelta adds delta to the balance and returns the new value. The
	// change is refused with *ledger.InsufficientFundsError when the
	// result would be negative, leaving the balance untouched.
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta int64) (int64, error)
}
