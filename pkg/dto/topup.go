package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopupRead is a read-optimized view of a top-up.
type TopupRead struct {
	ID                  uuid.UUID        `json:"id"`
	UserID              uuid.UUID        `json:"user_id"`
	AmountMvr           decimal.Decimal  `json:"amount_mvr"`
	PricePerCoin        decimal.Decimal  `json:"price_per_coin"`
	AppliedPricePerCoin *decimal.Decimal `json:"applied_price_per_coin,omitempty"`
	SlipEvidence        string           `json:"slip_evidence"`
	Status              string           `json:"status"`
	ComputedCoins       *int64           `json:"computed_coins,omitempty"`
	AdminNote           string           `json:"admin_note,omitempty"`
	ReviewedBy          *uuid.UUID       `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// TopupCreate is the input for persisting a new PENDING top-up.
type TopupCreate struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AmountMvr    decimal.Decimal
	PricePerCoin decimal.Decimal
	SlipEvidence string
	Status       string
	CreatedAt    time.Time
}

// TopupReview carries the fields written by an approve or reject
// transition. ComputedCoins and AppliedPricePerCoin are nil on reject.
type TopupReview struct {
	Status              string
	ComputedCoins       *int64
	AppliedPricePerCoin *decimal.Decimal
	AdminNote           string
	ReviewedBy          uuid.UUID
	ReviewedAt          time.Time
}

// TopupSubmit is the user request body for a new top-up.
type TopupSubmit struct {
	AmountMvr    decimal.Decimal `json:"amount_mvr" validate:"required"`
	SlipEvidence string          `json:"slip_evidence" validate:"required,max=2048"`
}

// TopupDecision is the admin request body for approve and reject.
type TopupDecision struct {
	Note string `json:"note" validate:"max=500"`
}
