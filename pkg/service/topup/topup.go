// Package topup runs the bank-transfer top-up workflow: users submit a
// claim, an admin approves or rejects it, and an approval credits coins
// exactly once.
package topup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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
	"github.com/atollmatch/atollmatch/pkg/eventbus"
	"github.com/atollmatch/atollmatch/pkg/repository"
	topuprepo "github.com/atollmatch/atollmatch/pkg/repository/topup"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingProvider returns the current pricing snapshot.
type PricingProvider interface {
	GetPricing(ctx context.Context) (pricing.Pricing, error)
}

// UserReader loads a user's identity snapshot.
type UserReader interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Ledger applies balance changes inside a unit of work.
type Ledger interface {
	Apply(ctx context.Context, uow repository.UnitOfWork, m ledgersvc.Mutation) (*ledgersvc.Receipt, error)
}

// Notifier delivers best-effort user notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind notification.Kind, payload map[string]any)
}

// Auditor records admin actions.
type Auditor interface {
	Record(
		ctx context.Context,
		adminID uuid.UUID,
		action audit.Action,
		entity audit.Entity,
		entityID string,
		meta map[string]any,
	) error
}

// Service runs the top-up workflow.
type Service struct {
	uow        repository.UnitOfWork
	pricing    PricingProvider
	users      UserReader
	ledger     Ledger
	notifier   Notifier
	auditor    Auditor
	bus        eventbus.Bus
	logger     *slog.Logger
	ratePolicy string
}

// NewService creates a new top-up Service. The rate policy comes from
// deps.Config and defaults to pricing at approval time.
func NewService(
	deps config.Deps,
	pricing PricingProvider,
	users UserReader,
	ledger Ledger,
	notifier Notifier,
	auditor Auditor,
) *Service {
	policy := config.RatePolicyApproval
	if deps.Config != nil && deps.Config.Pricing != nil && deps.Config.Pricing.RatePolicy != "" {
		policy = deps.Config.Pricing.RatePolicy
	}
	return &Service{
		uow:        deps.Uow,
		pricing:    pricing,
		users:      users,
		ledger:     ledger,
		notifier:   notifier,
		auditor:    auditor,
		bus:        deps.EventBus,
		logger:     deps.Logger,
		ratePolicy: policy,
	}
}

// Submit files a PENDING top-up for userID, snapshotting the current coin
// price.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req dto.TopupSubmit) (*topup.Topup, error) {
	logger := s.logger.With("userID", userID, "amountMvr", req.AmountMvr.String())
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.pricing.GetPricing(ctx)
	if err != nil {
		return nil, err
	}
	t, err := topup.New(userID, req.AmountMvr, p.CoinPriceMvr, req.SlipEvidence)
	if err != nil {
		logger.Info("Submit refused", "error", err)
		return nil, err
	}
	repo, err := s.uow.TopupRepository()
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, &dto.TopupCreate{
		ID:           t.ID,
		UserID:       t.UserID,
		AmountMvr:    t.AmountMvr,
		PricePerCoin: t.PricePerCoin,
		SlipEvidence: t.SlipEvidence,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
	}); err != nil {
		logger.Error("Submit failed: repo create error", "error", err)
		return nil, err
	}
	logger.Info("top-up submitted", "topupID", t.ID, "pricePerCoin", t.PricePerCoin.String())
	s.emit(ctx, logger, &events.TopupSubmitted{TopupID: t.ID, UserID: userID, AmountMvr: t.AmountMvr.String()})
	return t, nil
}

// Approve credits the coins bought by a PENDING top-up and marks it
// APPROVED, both in one transaction. Any other status fails with an
// *topup.InvalidStateError and changes nothing.
func (s *Service) Approve(ctx context.Context, topupID, adminID uuid.UUID, note string) (t *topup.Topup, err error) {
	logger := s.logger.With("topupID", topupID, "adminID", adminID)
	if adminID == uuid.Nil {
		return nil, audit.ErrMissingAdmin
	}
	var current *decimal.Decimal
	if s.ratePolicy == config.RatePolicyApproval {
		p, err := s.pricing.GetPricing(ctx)
		if err != nil {
			return nil, err
		}
		current = &p.CoinPriceMvr
	}

	var receipt *ledgersvc.Receipt
	var coins int64
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TopupRepository()
		if err != nil {
			return err
		}
		t, err = load(ctx, repo, topupID)
		if err != nil {
			return err
		}
		price := t.PricePerCoin
		if current != nil {
			price = *current
		}
		coins, err = t.Approve(adminID, price, note, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := s.review(ctx, repo, t, topup.ActionApprove); err != nil {
			return err
		}
		receipt, err = s.ledger.Apply(ctx, uow, ledgersvc.Mutation{
			UserID:      t.UserID,
			Delta:       coins,
			Reason:      ledger.ReasonTopup,
			Ref:         ledger.Ref{Table: ledger.RefTableTopups, ID: t.ID},
			Description: fmt.Sprintf("top-up of %s MVR at %s per coin", t.AmountMvr.String(), price.String()),
		})
		return err
	})
	if err != nil {
		s.logFailure(logger, "Approve", err)
		return nil, err
	}
	logger.Info("top-up approved", "userID", t.UserID, "coins", coins, "balance", receipt.Balance)

	if s.notifier != nil {
		s.notifier.Notify(ctx, t.UserID, notification.KindTopupApproved, map[string]any{
			notification.KeyTopupID: t.ID.String(),
			notification.KeyCoins:   coins,
			notification.KeyBalance: receipt.Balance,
			notification.KeyNote:    t.AdminNote,
		})
	}
	s.audit(ctx, logger, adminID, audit.ActionTopupApprove, t, map[string]any{
		"user_id":        t.UserID.String(),
		"amount_mvr":     t.AmountMvr.String(),
		"price_per_coin": t.AppliedPricePerCoin.String(),
		"coins":          coins,
		"note":           t.AdminNote,
	})
	s.emit(ctx, logger, &events.TopupApproved{
		TopupID: t.ID,
		UserID:  t.UserID,
		AdminID: adminID,
		Coins:   coins,
		Balance: receipt.Balance,
	})
	return t, nil
}

// Reject marks a PENDING top-up REJECTED. No coins move.
func (s *Service) Reject(ctx context.Context, topupID, adminID uuid.UUID, note string) (t *topup.Topup, err error) {
	logger := s.logger.With("topupID", topupID, "adminID", adminID)
	if adminID == uuid.Nil {
		return nil, audit.ErrMissingAdmin
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TopupRepository()
		if err != nil {
			return err
		}
		t, err = load(ctx, repo, topupID)
		if err != nil {
			return err
		}
		if err := t.Reject(adminID, note, time.Now().UTC()); err != nil {
			return err
		}
		return s.review(ctx, repo, t, topup.ActionReject)
	})
	if err != nil {
		s.logFailure(logger, "Reject", err)
		return nil, err
	}
	logger.Info("top-up rejected", "userID", t.UserID)

	if s.notifier != nil {
		s.notifier.Notify(ctx, t.UserID, notification.KindTopupRejected, map[string]any{
			notification.KeyTopupID: t.ID.String(),
			notification.KeyNote:    t.AdminNote,
		})
	}
	s.audit(ctx, logger, adminID, audit.ActionTopupReject, t, map[string]any{
		"user_id":    t.UserID.String(),
		"amount_mvr": t.AmountMvr.String(),
		"note":       t.AdminNote,
	})
	s.emit(ctx, logger, &events.TopupRejected{TopupID: t.ID, UserID: t.UserID, AdminID: adminID, Note: t.AdminNote})
	return t, nil
}

// Get returns one top-up.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*topup.Topup, error) {
	repo, err := s.uow.TopupRepository()
	if err != nil {
		return nil, err
	}
	return load(ctx, repo, id)
}

// ListForUser returns userID's top-ups newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*topup.Topup, error) {
	repo, err := s.uow.TopupRepository()
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// ListByStatus returns top-ups in status oldest first, the order an admin
// works through the queue. An empty status lists every top-up.
func (s *Service) ListByStatus(ctx context.Context, status topup.Status) ([]*topup.Topup, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown top-up status %q", domain.ErrValidation, status)
	}
	repo, err := s.uow.TopupRepository()
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// review persists t's transition. The write only matches a PENDING row, so
// a concurrent reviewer that committed first turns this into an
// InvalidStateError carrying the status it left behind.
func (s *Service) review(ctx context.Context, repo topuprepo.Repository, t *topup.Topup, action topup.Action) error {
	err := repo.Review(ctx, t.ID, &dto.TopupReview{
		Status:              string(t.Status),
		ComputedCoins:       t.ComputedCoins,
		AppliedPricePerCoin: t.AppliedPricePerCoin,
		AdminNote:           t.AdminNote,
		ReviewedBy:          *t.ReviewedBy,
		ReviewedAt:          *t.ReviewedAt,
	})
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	status := topup.Status("")
	if latest, gerr := repo.Get(ctx, t.ID); gerr == nil {
		status = topup.Status(latest.Status)
	}
	return &topup.InvalidStateError{TopupID: t.ID, Status: status, Action: action}
}

func (s *Service) audit(
	ctx context.Context,
	logger *slog.Logger,
	adminID uuid.UUID,
	action audit.Action,
	t *topup.Topup,
	meta map[string]any,
) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, adminID, action, audit.EntityTopup, t.ID.String(), meta); err != nil {
		logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, logger *slog.Logger, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, e); err != nil {
		logger.Warn("event emit failed", "type", e.Type(), "error", err)
	}
}

func (s *Service) logFailure(logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, topup.ErrInvalidState),
		errors.Is(err, topup.ErrTopupNotFound),
		errors.Is(err, topup.ErrAmountBelowCoinPrice),
		errors.Is(err, topup.ErrAmountTooLarge):
		logger.Info(op+" refused", "error", err)
	default:
		logger.Error(op+" failed", "error", err)
	}
}

func load(ctx context.Context, repo topuprepo.Repository, id uuid.UUID) (*topup.Topup, error) {
	read, err := repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", topup.ErrTopupNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return toDomain(read), nil
}

func toDomain(r *dto.TopupRead) *topup.Topup {
	return &topup.Topup{
		ID:                  r.ID,
		UserID:              r.UserID,
		AmountMvr:           r.AmountMvr,
		PricePerCoin:        r.PricePerCoin,
		AppliedPricePerCoin: r.AppliedPricePerCoin,
		SlipEvidence:        r.SlipEvidence,
		Status:              topup.Status(r.Status),
		ComputedCoins:       r.ComputedCoins,
		AdminNote:           r.AdminNote,
		ReviewedBy:          r.ReviewedBy,
		ReviewedAt:          r.ReviewedAt,
		CreatedAt:           r.CreatedAt,
	}
}

func toDomainList(rows []*dto.TopupRead) []*topup.Topup {
	out := make([]*topup.Topup, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomain(r))
	}
	return out
}
