package spend_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/atollmatch/atollmatch/infra/eventbus"
	postmodel "github.com/atollmatch/atollmatch/infra/repository/post"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	spendsvc "github.com/atollmatch/atollmatch/pkg/service/spend"
	usersvc "github.com/atollmatch/atollmatch/pkg/service/user"
	"github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type staticPricing struct {
	p pricing.Pricing
}

func (s staticPricing) GetPricing(context.Context) (pricing.Pricing, error) { return s.p, nil }

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []notification.Kind
}

func (f *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, kind notification.Kind, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

type fakeAuditor struct {
	calls atomic.Int32
}

func (f *fakeAuditor) Record(context.Context, uuid.UUID, audit.Action, audit.Entity, string, map[string]any) error {
	f.calls.Add(1)
	return nil
}

type fixture struct {
	svc      *spendsvc.Service
	db       *gorm.DB
	bus      *eventbus.MemoryEventBus
	notifier *fakeNotifier
	auditor  *fakeAuditor
}

func newFixture(t *testing.T, costPost, costConnect int64) *fixture {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	logger := testutils.DiscardLogger()
	bus := eventbus.NewWithMemory(logger)
	deps := config.Deps{Uow: uow, EventBus: bus, Logger: logger}
	f := &fixture{db: db, bus: bus, notifier: &fakeNotifier{}, auditor: &fakeAuditor{}}
	ledgerSvc := ledgersvc.NewService(deps, f.notifier, f.auditor)
	users := usersvc.NewService(deps, ledgerSvc, f.auditor)
	prices := staticPricing{p: pricing.Pricing{
		CoinPriceMvr: decimal.NewFromInt(10),
		CostPost:     costPost,
		CostConnect:  costConnect,
	}}
	f.svc = spendsvc.NewService(deps, prices, users, ledgerSvc, f.notifier, f.auditor)
	return f
}

func postRef() ledger.Ref { return ledger.Ref{Table: ledger.RefTablePosts, ID: uuid.New()} }

func createPost(userID uuid.UUID) spendsvc.CreateFunc {
	return func(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error {
		repo, err := uow.PostRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, &dto.PostCreate{ID: id, UserID: userID, Title: "hello", Body: "world"})
	}
}

func TestCharge_Success(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)
	ref := postRef()

	receipt, err := f.svc.Charge(testutils.Context(t), userID, pricing.ActionPost, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(3), receipt.Balance)
	assert.Equal(t, int64(-2), receipt.Entry.Delta)
	assert.Equal(t, string(ledger.ReasonPost), receipt.Entry.Reason)

	published := f.bus.Published()
	require.Len(t, published, 1)
	charged, ok := published[0].(*events.CoinsCharged)
	require.True(t, ok)
	assert.Equal(t, ref.ID, charged.RefID)
	assert.Equal(t, int64(2), charged.Cost)
}

func TestCharge_InsufficientFunds(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 1)

	_, err := f.svc.Charge(testutils.Context(t), userID, pricing.ActionPost, postRef())
	var ife *ledger.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(2), ife.Required)
	assert.Equal(t, int64(1), ife.Balance)

	assert.Equal(t, int64(1), testutils.Balance(t, f.db, userID))
	assert.Len(t, testutils.LedgerEntries(t, f.db, userID), 1)
	assert.Empty(t, f.bus.Published())
}

func TestCharge_NotApprovedHasNoSideEffects(t *testing.T) {
	for _, status := range []user.Status{user.StatusPending, user.StatusRejected, user.StatusSuspended} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, 2, 1)
			userID := testutils.SeedUser(t, f.db, status, 10)
			created := false

			_, err := f.svc.Charge(testutils.Context(t), userID, pricing.ActionConnect, postRef())
			require.ErrorIs(t, err, user.ErrNotApproved)

			_, _, err = f.svc.ChargeAndCreate(testutils.Context(t), userID, pricing.ActionPost, ledger.RefTablePosts,
				func(context.Context, repository.UnitOfWork, uuid.UUID) error {
					created = true
					return nil
				})
			require.ErrorIs(t, err, user.ErrNotApproved)

			assert.False(t, created)
			assert.Equal(t, int64(10), testutils.Balance(t, f.db, userID))
			assert.Len(t, testutils.LedgerEntries(t, f.db, userID), 1)
			assert.Empty(t, f.bus.Published())
		})
	}
}

func TestCharge_UnknownUser(t *testing.T) {
	f := newFixture(t, 2, 1)

	_, err := f.svc.Charge(testutils.Context(t), uuid.New(), pricing.ActionPost, postRef())
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCharge_FreeActionWritesNoEntry(t *testing.T) {
	f := newFixture(t, 0, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 0)

	receipt, err := f.svc.Charge(testutils.Context(t), userID, pricing.ActionPost, postRef())
	require.NoError(t, err)
	assert.Nil(t, receipt.Entry)
	assert.Zero(t, receipt.Balance)
	assert.Empty(t, testutils.LedgerEntries(t, f.db, userID))
}

func TestCharge_ConcurrentSameUserOnlyOneSucceeds(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 3)

	var succeeded, refused atomic.Int32
	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			_, err := f.svc.Charge(context.Background(), userID, pricing.ActionPost, postRef())
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ledger.ErrInsufficientFunds):
				refused.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(1), refused.Load())
	assert.Equal(t, int64(1), testutils.Balance(t, f.db, userID))
	assert.Equal(t, int64(1), testutils.LedgerSum(t, f.db, userID))
}

func TestCharge_ConcurrentManyChargesKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t, 1, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 10)

	var succeeded atomic.Int32
	var g errgroup.Group
	for range 25 {
		g.Go(func() error {
			_, err := f.svc.Charge(context.Background(), userID, pricing.ActionConnect,
				ledger.Ref{Table: ledger.RefTableConnections, ID: uuid.New()})
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), succeeded.Load())
	assert.Zero(t, testutils.Balance(t, f.db, userID))
	assert.Zero(t, testutils.LedgerSum(t, f.db, userID))
}

func TestChargeAndCreate_Success(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)

	id, receipt, err := f.svc.ChargeAndCreate(testutils.Context(t), userID, pricing.ActionPost,
		ledger.RefTablePosts, createPost(userID))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.NotNil(t, receipt.Entry.RefID)
	assert.Equal(t, id, *receipt.Entry.RefID)
	assert.Equal(t, int64(1), testutils.CountRows(t, f.db, &postmodel.Post{}))
}

func TestChargeAndCreate_InsufficientFundsCreatesNothing(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 1)

	_, _, err := f.svc.ChargeAndCreate(testutils.Context(t), userID, pricing.ActionPost,
		ledger.RefTablePosts, createPost(userID))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Zero(t, testutils.CountRows(t, f.db, &postmodel.Post{}))
}

func TestChargeAndCreate_CreateFailureRollsBackCharge(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)
	testutils.FailInsertsInto(t, f.db, "posts")

	_, _, err := f.svc.ChargeAndCreate(testutils.Context(t), userID, pricing.ActionPost,
		ledger.RefTablePosts, createPost(userID))
	require.ErrorIs(t, err, testutils.ErrInjected)

	assert.Equal(t, int64(5), testutils.Balance(t, f.db, userID))
	assert.Len(t, testutils.LedgerEntries(t, f.db, userID), 1)
	assert.Zero(t, testutils.CountRows(t, f.db, &postmodel.Post{}))
	assert.Empty(t, f.bus.Published())
}

func TestChargeAndCreate_LedgerFailureIsStorageError(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)
	testutils.FailInsertsInto(t, f.db, "ledger_entries")

	_, _, err := f.svc.ChargeAndCreate(testutils.Context(t), userID, pricing.ActionPost,
		ledger.RefTablePosts, createPost(userID))
	require.ErrorIs(t, err, domain.ErrStorage)

	assert.Equal(t, int64(5), testutils.Balance(t, f.db, userID))
	assert.Zero(t, testutils.CountRows(t, f.db, &postmodel.Post{}))
}

func TestChargeAndCreate_CancelledContextRollsBack(t *testing.T) {
	f := newFixture(t, 2, 1)
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)
	ctx, cancel := context.WithCancel(context.Background())

	_, _, err := f.svc.ChargeAndCreate(ctx, userID, pricing.ActionPost, ledger.RefTablePosts,
		func(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error {
			cancel()
			return ctx.Err()
		})
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, int64(5), testutils.Balance(t, f.db, userID))
}

func TestRefund(t *testing.T) {
	f := newFixture(t, 2, 1)
	ctx := testutils.Context(t)
	adminID := uuid.New()
	userID := testutils.SeedUser(t, f.db, user.StatusApproved, 5)

	postID, _, err := f.svc.ChargeAndCreate(ctx, userID, pricing.ActionPost, ledger.RefTablePosts, createPost(userID))
	require.NoError(t, err)
	require.Equal(t, int64(3), testutils.Balance(t, f.db, userID))

	receipt, err := f.svc.Refund(ctx, adminID, ledger.RefTablePosts, postID, "duplicate post")
	require.NoError(t, err)
	assert.Equal(t, int64(5), receipt.Balance)
	assert.Equal(t, int64(2), receipt.Entry.Delta)
	assert.Equal(t, string(ledger.ReasonRefund), receipt.Entry.Reason)

	_, err = f.svc.Refund(ctx, adminID, ledger.RefTablePosts, postID, "again")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, int64(5), testutils.Balance(t, f.db, userID))
	assert.Equal(t, int64(5), testutils.LedgerSum(t, f.db, userID))

	assert.Equal(t, []notification.Kind{notification.KindCoinsAdded}, f.notifier.kinds)
	assert.Equal(t, int32(1), f.auditor.calls.Load())
}

func TestRefund_Errors(t *testing.T) {
	f := newFixture(t, 2, 1)
	ctx := testutils.Context(t)

	_, err := f.svc.Refund(ctx, uuid.New(), ledger.RefTablePosts, uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Refund(ctx, uuid.New(), ledger.RefTableTopups, uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Refund(ctx, uuid.Nil, ledger.RefTablePosts, uuid.New(), "")
	assert.ErrorIs(t, err, audit.ErrMissingAdmin)
}
