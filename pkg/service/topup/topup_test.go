package topup_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/atollmatch/atollmatch/infra/eventbus"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	topupsvc "github.com/atollmatch/atollmatch/pkg/service/topup"
	usersvc "github.com/atollmatch/atollmatch/pkg/service/user"
	"github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type mutablePricing struct {
	mu    sync.Mutex
	price decimal.Decimal
}

func (m *mutablePricing) GetPricing(context.Context) (pricing.Pricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pricing.Pricing{CoinPriceMvr: m.price, CostPost: 2, CostConnect: 1}, nil
}

func (m *mutablePricing) set(price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.price = decimal.RequireFromString(price)
}

type fakeNotifier struct {
	mu       sync.Mutex
	kinds    []notification.Kind
	payloads []map[string]any
}

func (f *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, kind notification.Kind, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	f.payloads = append(f.payloads, payload)
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []audit.Action
}

func (f *fakeAuditor) Record(_ context.Context, _ uuid.UUID, action audit.Action, _ audit.Entity, _ string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

type fixture struct {
	svc      *topupsvc.Service
	db       *gorm.DB
	bus      *eventbus.MemoryEventBus
	pricing  *mutablePricing
	notifier *fakeNotifier
	auditor  *fakeAuditor
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	bus := eventbus.NewWithMemory(logger)
	deps := config.Deps{
		Uow:      uow,
		EventBus: bus,
		Logger:   logger,
		Config:   &config.App{Pricing: &config.Pricing{RatePolicy: policy}},
	}
	f := &fixture{
		db:       db,
		bus:      bus,
		pricing:  &mutablePricing{price: decimal.RequireFromString("10.00")},
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
	}
	ledgerSvc := ledgersvc.NewService(deps, f.notifier, f.auditor)
	users := usersvc.NewService(deps, ledgerSvc, f.auditor)
	f.svc = topupsvc.NewService(deps, f.pricing, users, ledgerSvc, f.notifier, f.auditor)
	return f
}

func (f *fixture) submit(t *testing.T, userID uuid.UUID, amount string) *topup.Topup {
	t.Helper()
	tp, err := f.svc.Submit(testutils.Context(t), userID, dto.TopupSubmit{
		AmountMvr:    decimal.RequireFromString(amount),
		SlipEvidence: "slips/" + uuid.NewString() + ".jpg",
	})
	require.NoError(t, err)
	return tp
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	userID := testutils.SeedUser(t, f.db, user.StatusPending, 0)

	tp := f.submit(t, userID, "100")
	assert.Equal(t, topup.StatusPending, tp.Status)
	assert.True(t, tp.PricePerCoin.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, tp.ComputedCoins)

	stored, err := f.svc.Get(testutils.Context(t), tp.ID)
	require.NoError(t, err)
	assert.Equal(t, topup.StatusPending, stored.Status)
	assert.True(t, stored.AmountMvr.Equal(decimal.NewFromInt(100)))
	assert.Zero(t, testutils.Balance(t, f.db, userID))

	require.Len(t, f.bus.Published(), 1)
	assert.IsType(t, &events.TopupSubmitted{}, f.bus.Published()[0])
}

func TestSubmit_Invalid(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	ctx := testutils.Context(t)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)

	tests := []struct {
		name    string
		userID  uuid.UUID
		req     dto.TopupSubmit
		wantErr error
	}{
		{"zero amount", userID, dto.TopupSubmit{AmountMvr: decimal.Zero, SlipEvidence: "s"}, topup.ErrInvalidAmount},
		{"no slip", userID, dto.TopupSubmit{AmountMvr: decimal.NewFromInt(50), SlipEvidence: " "}, topup.ErrMissingSlip},
		{"below one coin", userID, dto.TopupSubmit{AmountMvr: decimal.NewFromInt(5), SlipEvidence: "s"}, topup.ErrAmountBelowCoinPrice},
		{"unknown user", uuid.New(), dto.TopupSubmit{AmountMvr: decimal.NewFromInt(50), SlipEvidence: "s"}, user.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.userID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	all, err := f.svc.ListByStatus(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestApprove_CreditsOnce(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	ctx := testutils.Context(t)
	adminID := uuid.New()
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	tp := f.submit(t, userID, "100")

	approved, err := f.svc.Approve(ctx, tp.ID, adminID, "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, topup.StatusApproved, approved.Status)
	require.NotNil(t, approved.ComputedCoins)
	assert.Equal(t, int64(10), *approved.ComputedCoins)
	assert.Equal(t, "looks good", approved.AdminNote)

	assert.Equal(t, int64(10), testutils.Balance(t, f.db, userID))
	entries := testutils.LedgerEntries(t, f.db, userID)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10), entries[0].Delta)
	assert.Equal(t, string(ledger.ReasonTopup), entries[0].Reason)
	require.NotNil(t, entries[0].RefTable)
	assert.Equal(t, ledger.RefTableTopups, *entries[0].RefTable)
	assert.Equal(t, tp.ID, *entries[0].RefID)

	_, err = f.svc.Approve(ctx, tp.ID, adminID, "again")
	var ise *topup.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, topup.StatusApproved, ise.Status)

	assert.Equal(t, int64(10), testutils.Balance(t, f.db, userID))
	assert.Len(t, testutils.LedgerEntries(t, f.db, userID), 1)

	stored, err := f.svc.Get(ctx, tp.ID)
	require.NoError(t, err)
	assert.Equal(t, "looks good", stored.AdminNote)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, adminID, *stored.ReviewedBy)

	assert.Equal(t, []notification.Kind{notification.KindTopupApproved}, f.notifier.kinds)
	assert.Equal(t, int64(10), f.notifier.payloads[0][notification.KeyCoins])
	assert.Equal(t, []audit.Action{audit.ActionTopupApprove}, f.auditor.actions)
}

func TestApprove_ConcurrentOnlyOneCredits(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	tp := f.submit(t, userID, "100")

	var approved, conflicted atomic.Int32
	var g errgroup.Group
	for range 5 {
		g.Go(func() error {
			_, err := f.svc.Approve(context.Background(), tp.ID, uuid.New(), "")
			switch {
			case err == nil:
				approved.Add(1)
			case errors.Is(err, topup.ErrInvalidState):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), approved.Load())
	assert.Equal(t, int32(4), conflicted.Load())
	assert.Equal(t, int64(10), testutils.Balance(t, f.db, userID))
	assert.Len(t, testutils.LedgerEntries(t, f.db, userID), 1)
}

func TestReject(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	ctx := testutils.Context(t)
	adminID := uuid.New()
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	tp := f.submit(t, userID, "100")

	rejected, err := f.svc.Reject(ctx, tp.ID, adminID, "slip unreadable")
	require.NoError(t, err)
	assert.Equal(t, topup.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.ComputedCoins)

	_, err = f.svc.Reject(ctx, tp.ID, adminID, "second note")
	require.ErrorIs(t, err, topup.ErrInvalidState)
	_, err = f.svc.Approve(ctx, tp.ID, adminID, "")
	require.ErrorIs(t, err, topup.ErrInvalidState)

	stored, err := f.svc.Get(ctx, tp.ID)
	require.NoError(t, err)
	assert.Equal(t, topup.StatusRejected, stored.Status)
	assert.Equal(t, "slip unreadable", stored.AdminNote)
	assert.Zero(t, testutils.Balance(t, f.db, userID))
	assert.Empty(t, testutils.LedgerEntries(t, f.db, userID))
	assert.Equal(t, []notification.Kind{notification.KindTopupRejected}, f.notifier.kinds)
	assert.Equal(t, []audit.Action{audit.ActionTopupReject}, f.auditor.actions)
}

func TestApprove_RatePolicy(t *testing.T) {
	tests := []struct {
		policy    string
		wantCoins int64
		wantPrice string
	}{
		{config.RatePolicyApproval, 8, "12.5"},
		{config.RatePolicySubmission, 10, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			f := newFixture(t, tt.policy)
			userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
			tp := f.submit(t, userID, "100")
			f.pricing.set("12.50")

			approved, err := f.svc.Approve(testutils.Context(t), tp.ID, uuid.New(), "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCoins, *approved.ComputedCoins)
			require.NotNil(t, approved.AppliedPricePerCoin)
			assert.True(t, approved.AppliedPricePerCoin.Equal(decimal.RequireFromString(tt.wantPrice)))
			assert.Equal(t, tt.wantCoins, testutils.Balance(t, f.db, userID))
		})
	}
}

func TestApprove_BelowPriceStaysPending(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	tp := f.submit(t, userID, "15")
	f.pricing.set("20")

	_, err := f.svc.Approve(testutils.Context(t), tp.ID, uuid.New(), "")
	require.ErrorIs(t, err, topup.ErrAmountBelowCoinPrice)

	stored, err := f.svc.Get(testutils.Context(t), tp.ID)
	require.NoError(t, err)
	assert.Equal(t, topup.StatusPending, stored.Status)
	assert.Zero(t, testutils.Balance(t, f.db, userID))
}

func TestApprove_StorageFailureLeavesPending(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	tp := f.submit(t, userID, "100")
	testutils.FailInsertsInto(t, f.db, "ledger_entries")

	_, err := f.svc.Approve(testutils.Context(t), tp.ID, uuid.New(), "")
	require.ErrorIs(t, err, domain.ErrStorage)

	stored, err := f.svc.Get(testutils.Context(t), tp.ID)
	require.NoError(t, err)
	assert.Equal(t, topup.StatusPending, stored.Status)
	assert.Nil(t, stored.ComputedCoins)
	assert.Zero(t, testutils.Balance(t, f.db, userID))
	assert.Empty(t, f.notifier.kinds)
	assert.Empty(t, f.auditor.actions)
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)

	_, err := f.svc.Approve(testutils.Context(t), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, topup.ErrTopupNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Reject(testutils.Context(t), uuid.New(), uuid.Nil, "")
	assert.ErrorIs(t, err, audit.ErrMissingAdmin)
}

func TestListings(t *testing.T) {
	f := newFixture(t, config.RatePolicyApproval)
	ctx := testutils.Context(t)
	alice := testutils.SeedUser(t, f.db, user.StatusApproved, 0)
	bob := testutils.SeedUser(t, f.db, user.StatusApproved, 0)

	first := f.submit(t, alice, "100")
	f.submit(t, alice, "50")
	f.submit(t, bob, "20")
	_, err := f.svc.Approve(ctx, first.ID, uuid.New(), "")
	require.NoError(t, err)

	mine, err := f.svc.ListForUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := f.svc.ListByStatus(ctx, topup.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	approved, err := f.svc.ListByStatus(ctx, topup.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	_, err = f.svc.ListByStatus(ctx, "LOST")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
