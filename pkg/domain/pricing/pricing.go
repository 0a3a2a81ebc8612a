// Package pricing describes the coin price and per-action costs that gate
// the paid actions of the platform.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownAction is returned when no cost is configured for an action.
	ErrUnknownAction = errors.New("unknown coin-costing action")
	// ErrInvalidPrice is returned when the coin price is not positive.
	ErrInvalidPrice = errors.New("coin price must be positive")
	// ErrNegativeCost is returned when an action cost is below zero.
	ErrNegativeCost = errors.New("action cost cannot be negative")
)

// ActionKind names an action that costs coins.
type ActionKind string

const (
	ActionPost    ActionKind = "POST"
	ActionConnect ActionKind = "CONNECT"
)

// Pricing is the singleton settings snapshot. Values are copied out of the
// provider, so a caller always reads one consistent version.
type Pricing struct {
	CoinPriceMvr decimal.Decimal `json:"coin_price_mvr"`
	CostPost     int64           `json:"cost_post"`
	CostConnect  int64           `json:"cost_connect"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CostFor returns the number of coins charged for kind.
func (p Pricing) CostFor(kind ActionKind) (int64, error) {
	switch kind {
	case ActionPost:
		return p.CostPost, nil
	case ActionConnect:
		return p.CostConnect, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}

// Validate checks the pricing invariants.
func (p Pricing) Validate() error {
	if !p.CoinPriceMvr.IsPositive() {
		return ErrInvalidPrice
	}
	if p.CostPost < 0 || p.CostConnect < 0 {
		return ErrNegativeCost
	}
	return nil
}
