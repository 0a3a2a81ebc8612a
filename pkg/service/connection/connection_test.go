package connection_test

import (
	"context"
	"testing"

	connectionmodel "github.com/atollmatch/atollmatch/infra/repository/connection"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	connectionsvc "github.com/atollmatch/atollmatch/pkg/service/connection"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/atollmatch/atollmatch/pkg/service/spend"
	usersvc "github.com/atollmatch/atollmatch/pkg/service/user"
	"github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticPricing struct{}

func (staticPricing) GetPricing(context.Context) (pricing.Pricing, error) {
	return pricing.Pricing{CoinPriceMvr: decimal.NewFromInt(10), CostPost: 2, CostConnect: 1}, nil
}

func newService(t *testing.T) (*connectionsvc.Service, *gorm.DB) {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	deps := config.Deps{Uow: uow, Logger: testutils.DiscardLogger()}
	ledgerSvc := ledgersvc.NewService(deps, nil, nil)
	users := usersvc.NewService(deps, ledgerSvc, nil)
	charger := spend.NewService(deps, staticPricing{}, users, ledgerSvc, nil, nil)
	return connectionsvc.NewService(deps, charger, users), db
}

func TestRequest(t *testing.T) {
	svc, db := newService(t)
	ctx := testutils.Context(t)
	from := testutils.SeedUser(t, db, user.StatusApproved, 3)
	to := testutils.SeedUser(t, db, user.StatusApproved, 0)

	req, receipt, err := svc.Request(ctx, from, to, " salaam ")
	require.NoError(t, err)
	assert.Equal(t, from, req.FromUserID)
	assert.Equal(t, to, req.ToUserID)
	assert.Equal(t, "salaam", req.Message)
	assert.Equal(t, int64(2), receipt.Balance)
	assert.Equal(t, string(ledger.ReasonConnect), receipt.Entry.Reason)
	assert.Equal(t, req.ID, *receipt.Entry.RefID)

	_, _, err = svc.Request(ctx, from, to, "again")
	require.ErrorIs(t, err, connectionsvc.ErrDuplicateRequest)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, int64(2), testutils.Balance(t, db, from))
}

func TestRequest_RejectedBeforeCharge(t *testing.T) {
	svc, db := newService(t)
	ctx := testutils.Context(t)
	from := testutils.SeedUser(t, db, user.StatusApproved, 3)
	pending := testutils.SeedUser(t, db, user.StatusPending, 0)

	tests := []struct {
		name    string
		to      uuid.UUID
		wantErr error
	}{
		{"self", from, connectionsvc.ErrSelfRequest},
		{"unknown target", uuid.New(), connectionsvc.ErrTargetUnavailable},
		{"pending target", pending, connectionsvc.ErrTargetUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Request(ctx, from, tt.to, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(3), testutils.Balance(t, db, from))
	assert.Zero(t, testutils.CountRows(t, db, &connectionmodel.Request{}))
}

func TestRequest_InsufficientFunds(t *testing.T) {
	svc, db := newService(t)
	from := testutils.SeedUser(t, db, user.StatusApproved, 0)
	to := testutils.SeedUser(t, db, user.StatusApproved, 0)

	_, _, err := svc.Request(testutils.Context(t), from, to, "")
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Zero(t, testutils.CountRows(t, db, &connectionmodel.Request{}))
}
