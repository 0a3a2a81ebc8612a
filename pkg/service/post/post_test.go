package post_test

import (
	"context"
	"testing"

	postmodel "github.com/atollmatch/atollmatch/infra/repository/post"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	postsvc "github.com/atollmatch/atollmatch/pkg/service/post"
	"github.com/atollmatch/atollmatch/pkg/service/spend"
	usersvc "github.com/atollmatch/atollmatch/pkg/service/user"
	"github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticPricing struct{}

func (staticPricing) GetPricing(context.Context) (pricing.Pricing, error) {
	return pricing.Pricing{CoinPriceMvr: decimal.NewFromInt(10), CostPost: 2, CostConnect: 1}, nil
}

func newService(t *testing.T) (*postsvc.Service, *gorm.DB) {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	deps := config.Deps{Uow: uow, Logger: testutils.DiscardLogger()}
	ledgerSvc := ledgersvc.NewService(deps, nil, nil)
	users := usersvc.NewService(deps, ledgerSvc, nil)
	charger := spend.NewService(deps, staticPricing{}, users, ledgerSvc, nil, nil)
	return postsvc.NewService(deps, charger), db
}

func TestCreate(t *testing.T) {
	svc, db := newService(t)
	userID := testutils.SeedUser(t, db, user.StatusApproved, 5)

	p, receipt, err := svc.Create(testutils.Context(t), userID, dto.PostCreate{Title: " Looking for a partner ", Body: "Malé"})
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, "Looking for a partner", p.Title)
	assert.Equal(t, int64(3), receipt.Balance)
	assert.Equal(t, p.ID, *receipt.Entry.RefID)
	assert.Equal(t, int64(3), testutils.LedgerSum(t, db, userID))
}

func TestCreate_InsufficientFunds(t *testing.T) {
	svc, db := newService(t)
	userID := testutils.SeedUser(t, db, user.StatusApproved, 1)

	_, _, err := svc.Create(testutils.Context(t), userID, dto.PostCreate{Title: "Hello", Body: "x"})
	var ife *ledger.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(2), ife.Required)

	assert.Equal(t, int64(1), testutils.Balance(t, db, userID))
	assert.Len(t, testutils.LedgerEntries(t, db, userID), 1)
	assert.Zero(t, testutils.CountRows(t, db, &postmodel.Post{}))
}

func TestCreate_NotApproved(t *testing.T) {
	svc, db := newService(t)
	userID := testutils.SeedUser(t, db, user.StatusPending, 5)

	_, _, err := svc.Create(testutils.Context(t), userID, dto.PostCreate{Title: "Hello", Body: "x"})
	require.ErrorIs(t, err, user.ErrNotApproved)
	assert.Equal(t, int64(5), testutils.Balance(t, db, userID))
	assert.Zero(t, testutils.CountRows(t, db, &postmodel.Post{}))
}
