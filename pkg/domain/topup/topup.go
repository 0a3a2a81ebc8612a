// Package topup models a user's claim of a bank transfer and the
// moderation state machine that turns an approved claim into coins.
//
//	PENDING --approve--> APPROVED
//	PENDING --reject---> REJECTED
//
// APPROVED and REJECTED are terminal.
package topup

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidState is matched by every InvalidStateError.
	ErrInvalidState = errors.New("invalid top-up state")
	// ErrInvalidAmount is returned when the claimed amount is not positive
	// or carries fractions of a laari.
	ErrInvalidAmount = errors.New("top-up amount must be positive with at most two decimal places")
	// ErrAmountTooLarge is returned when the amount exceeds MaxAmountMvr or
	// would credit more coins than a balance can hold.
	ErrAmountTooLarge = errors.New("top-up amount is too large")
	// ErrMissingSlip is returned when no transfer evidence is attached.
	ErrMissingSlip = errors.New("top-up requires transfer slip evidence")
	// ErrAmountBelowCoinPrice is returned when the amount buys zero coins.
	ErrAmountBelowCoinPrice = errors.New("top-up amount is below the price of one coin")
	// ErrTopupNotFound is returned when a top-up does not exist.
	ErrTopupNotFound = errors.New("top-up not found")
)

// MaxAmountMvr caps a single claim, well inside the NUMERIC(14,2) column.
var MaxAmountMvr = decimal.New(1, 10)

const amountScale = 2

var maxCoins = decimal.NewFromInt(math.MaxInt64)

// Status is the moderation state of a top-up.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action names a transition attempt, used in InvalidStateError.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// InvalidStateError is returned when a transition is attempted on a
// top-up that is no longer PENDING.
type InvalidStateError struct {
	TopupID uuid.UUID
	Status  Status
	Action  Action
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s top-up %s: already %s", e.Action, e.TopupID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// Topup is a bank-transfer claim.
type Topup struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	AmountMvr           decimal.Decimal
	PricePerCoin        decimal.Decimal // snapshot at submission
	AppliedPricePerCoin *decimal.Decimal
	SlipEvidence        string
	Status              Status
	ComputedCoins       *int64
	AdminNote           string
	ReviewedBy          *uuid.UUID
	ReviewedAt          *time.Time
	CreatedAt           time.Time
}

// New builds a PENDING top-up, snapshotting the coin price in force at
// submission time.
func New(userID uuid.UUID, amount, pricePerCoin decimal.Decimal, slip string) (*Topup, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(amountScale)) {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(MaxAmountMvr) {
		return nil, ErrAmountTooLarge
	}
	slip = strings.TrimSpace(slip)
	if slip == "" {
		return nil, ErrMissingSlip
	}
	coins, ok := quoteCoins(amount, pricePerCoin)
	if !ok {
		return nil, ErrAmountTooLarge
	}
	if coins <= 0 {
		return nil, ErrAmountBelowCoinPrice
	}
	return &Topup{
		ID:           uuid.New(),
		UserID:       userID,
		AmountMvr:    amount,
		PricePerCoin: pricePerCoin,
		SlipEvidence: slip,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ComputeCoins returns floor(amount / price). A non-positive price, or a
// quotient that does not fit in int64, yields 0.
func ComputeCoins(amount, price decimal.Decimal) int64 {
	coins, _ := quoteCoins(amount, price)
	return coins
}

// quoteCoins reports ok=false when the quotient overflows int64.
func quoteCoins(amount, price decimal.Decimal) (int64, bool) {
	if !price.IsPositive() || !amount.IsPositive() {
		return 0, true
	}
	q, _ := amount.QuoRem(price, 0)
	if q.GreaterThan(maxCoins) {
		return 0, false
	}
	return q.IntPart(), true
}

// Approve moves a PENDING top-up to APPROVED, fixing the credited coins at
// the given price. It returns the coins to credit.
func (t *Topup) Approve(adminID uuid.UUID, price decimal.Decimal, note string, at time.Time) (int64, error) {
	if t.Status != StatusPending {
		return 0, &InvalidStateError{TopupID: t.ID, Status: t.Status, Action: ActionApprove}
	}
	coins, ok := quoteCoins(t.AmountMvr, price)
	if !ok {
		return 0, ErrAmountTooLarge
	}
	if coins <= 0 {
		return 0, ErrAmountBelowCoinPrice
	}
	t.Status = StatusApproved
	t.ComputedCoins = &coins
	t.AppliedPricePerCoin = &price
	t.review(adminID, note, at)
	return coins, nil
}

// Reject moves a PENDING top-up to REJECTED.
func (t *Topup) Reject(adminID uuid.UUID, note string, at time.Time) error {
	if t.Status != StatusPending {
		return &InvalidStateError{TopupID: t.ID, Status: t.Status, Action: ActionReject}
	}
	t.Status = StatusRejected
	t.review(adminID, note, at)
	return nil
}

func (t *Topup) review(adminID uuid.UUID, note string, at time.Time) {
	t.AdminNote = strings.TrimSpace(note)
	t.ReviewedBy = &adminID
	t.ReviewedAt = &at
}
