package ledger

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/google/uuid"
)

// Repository is the append-only ledger store. It deliberately has no
// update or delete methods.
type Repository interface {
	// Append inserts one entry and returns it with its assigned ID and
	// timestamp. A second entry with the same reason and ref fails with
	// domain.ErrAlreadyExists.
	Append(ctx context.Context, create *dto.LedgerEntryCreate) (*dto.LedgerEntryRead, error)

	// ListByUser returns up to limit entries newest first. beforeID > 0
	// restricts the page to entries older than that ID.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, beforeID int64) ([]*dto.LedgerEntryRead, error)

	// SumByUser returns the sum of all deltas and the entry count.
	SumByUser(ctx context.Context, userID uuid.UUID) (sum int64, count int64, err error)

	// FindByRef returns the entry with the given reason and ref.
	FindByRef(ctx context.Context, reason, refTable string, refID uuid.UUID) (*dto.LedgerEntryRead, error)
}
