package dto

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntryRead is a read-optimized view of one ledger row.
type LedgerEntryRead struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Delta       int64      `json:"delta"`
	Reason      string     `json:"reason"`
	RefTable    string     `json:"ref_table,omitempty"`
	RefID       *uuid.UUID `json:"ref_id,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LedgerEntryCreate is the input for appending a ledger row. There is no
// update counterpart: entries are immutable.
type LedgerEntryCreate struct {
	UserID      uuid.UUID
	Delta       int64
	Reason      string
	RefTable    string     // empty when the entry has no causing entity
	RefID       *uuid.UUID // nil when the entry has no causing entity
	Description string
}

// LedgerPage is one newest-first page of a user's history.
type LedgerPage struct {
	Entries    []*LedgerEntryRead `json:"entries"`
	NextCursor int64              `json:"next_cursor,omitempty"` // 0 when there are no older entries
}

// Reconciliation compares the stored balance with the ledger sum.
type Reconciliation struct {
	UserID     uuid.UUID `json:"user_id"`
	Balance    int64     `json:"balance"`
	LedgerSum  int64     `json:"ledger_sum"`
	Entries    int64     `json:"entries"`
	Consistent bool      `json:"consistent"`
}

// CoinAdjustment is an admin's manual credit or debit.
type CoinAdjustment struct {
	Delta int64  `json:"delta" validate:"required"`
	Note  string `json:"note" validate:"required,max=500"`
}
