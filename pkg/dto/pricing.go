package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsRead is the persisted pricing singleton.
type SettingsRead struct {
	CoinPriceMvr decimal.Decimal
	CostPost     int64
	CostConnect  int64
	UpdatedBy    *uuid.UUID
	UpdatedAt    time.Time
}

// SettingsWrite replaces every pricing value at once.
type SettingsWrite struct {
	CoinPriceMvr decimal.Decimal
	CostPost     int64
	CostConnect  int64
	UpdatedBy    *uuid.UUID
}

// PricingUpdate is a partial update; nil fields keep their current value.
type PricingUpdate struct {
	CoinPriceMvr *decimal.Decimal `json:"coin_price_mvr,omitempty"`
	CostPost     *int64           `json:"cost_post,omitempty" validate:"omitempty,gte=0"`
	CostConnect  *int64           `json:"cost_connect,omitempty" validate:"omitempty,gte=0"`
}
