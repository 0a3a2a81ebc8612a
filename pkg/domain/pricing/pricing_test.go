package pricing_test

import (
	"testing"

	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostFor(t *testing.T) {
	p := pricing.Pricing{CoinPriceMvr: decimal.NewFromInt(10), CostPost: 2, CostConnect: 1}

	cost, err := p.CostFor(pricing.ActionPost)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cost)

	cost, err = p.CostFor(pricing.ActionConnect)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cost)

	_, err = p.CostFor("CHAT")
	assert.ErrorIs(t, err, pricing.ErrUnknownAction)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, pricing.Pricing{CoinPriceMvr: decimal.RequireFromString("12.50")}.Validate())
	assert.ErrorIs(t, pricing.Pricing{}.Validate(), pricing.ErrInvalidPrice)
	assert.ErrorIs(t,
		pricing.Pricing{CoinPriceMvr: decimal.NewFromInt(1), CostPost: -1}.Validate(),
		pricing.ErrNegativeCost,
	)
}
