// Package spend gates coin-costing actions. A charge succeeds only for an
// approved user with enough coins, and is applied together with the
// entity it pays for.
package spend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
	"github.com/atollmatch/atollmatch/pkg/repository"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/google/uuid"
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

// CreateFunc persists the paid-for entity with the pre-allocated id using
// the repositories of uow.
type CreateFunc func(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error

// Service is the spend gate.
type Service struct {
	uow      repository.UnitOfWork
	pricing  PricingProvider
	users    UserReader
	ledger   Ledger
	notifier Notifier
	auditor  Auditor
	bus      eventbus.Bus
	logger   *slog.Logger
}

// NewService creates a new spend Service.
func NewService(
	deps config.Deps,
	pricing PricingProvider,
	users UserReader,
	ledger Ledger,
	notifier Notifier,
	auditor Auditor,
) *Service {
	return &Service{
		uow:      deps.Uow,
		pricing:  pricing,
		users:    users,
		ledger:   ledger,
		notifier: notifier,
		auditor:  auditor,
		bus:      deps.EventBus,
		logger:   deps.Logger,
	}
}

// quote resolves the cost of kind for userID. It runs before any unit of
// work opens and fails with a NotApprovedError for users who may not spend.
func (s *Service) quote(ctx context.Context, userID uuid.UUID, kind pricing.ActionKind) (int64, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := u.RequireApproved(); err != nil {
		return 0, err
	}
	p, err := s.pricing.GetPricing(ctx)
	if err != nil {
		return 0, err
	}
	return p.CostFor(kind)
}

func (s *Service) charge(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	kind pricing.ActionKind,
	cost int64,
	ref ledger.Ref,
) (*ledgersvc.Receipt, error) {
	if cost == 0 {
		repo, err := uow.BalanceRepository()
		if err != nil {
			return nil, err
		}
		balance, err := repo.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ledgersvc.Receipt{Balance: balance}, nil
	}
	return s.ledger.Apply(ctx, uow, ledgersvc.Mutation{
		UserID:      userID,
		Delta:       -cost,
		Reason:      ledger.Reason(kind),
		Ref:         ref,
		Description: fmt.Sprintf("%s charge", kind),
	})
}

// Charge debits the cost of kind from userID. A free action returns a
// receipt without an entry.
func (s *Service) Charge(
	ctx context.Context,
	userID uuid.UUID,
	kind pricing.ActionKind,
	ref ledger.Ref,
) (receipt *ledgersvc.Receipt, err error) {
	logger := s.logger.With("userID", userID, "action", kind, "refID", ref.ID)
	cost, err := s.quote(ctx, userID, kind)
	if err != nil {
		logger.Info("Charge refused", "error", err)
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		receipt, err = s.charge(ctx, uow, userID, kind, cost, ref)
		return err
	})
	if err != nil {
		s.logFailure(logger, "Charge", err)
		return nil, err
	}
	s.charged(ctx, userID, kind, ref, cost, receipt)
	return receipt, nil
}

// ChargeAndCreate allocates an id for a new entity of refTable, then
// charges kind and runs create in one unit of work. A failed charge
// prevents the entity and a failed create undoes the charge.
func (s *Service) ChargeAndCreate(
	ctx context.Context,
	userID uuid.UUID,
	kind pricing.ActionKind,
	refTable string,
	create CreateFunc,
) (id uuid.UUID, receipt *ledgersvc.Receipt, err error) {
	id = uuid.New()
	ref := ledger.Ref{Table: refTable, ID: id}
	logger := s.logger.With("userID", userID, "action", kind, "refTable", refTable, "refID", id)

	cost, err := s.quote(ctx, userID, kind)
	if err != nil {
		logger.Info("ChargeAndCreate refused", "error", err)
		return uuid.Nil, nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		receipt, err = s.charge(ctx, uow, userID, kind, cost, ref)
		if err != nil {
			return err
		}
		return create(ctx, uow, id)
	})
	if err != nil {
		s.logFailure(logger, "ChargeAndCreate", err)
		return uuid.Nil, nil, err
	}
	s.charged(ctx, userID, kind, ref, cost, receipt)
	return id, receipt, nil
}

// Refund reverses the charge recorded for the entity refTable/refID. A
// charge is refunded at most once; a second attempt fails with
// domain.ErrAlreadyExists.
func (s *Service) Refund(
	ctx context.Context,
	adminID uuid.UUID,
	refTable string,
	refID uuid.UUID,
	note string,
) (receipt *ledgersvc.Receipt, err error) {
	logger := s.logger.With("adminID", adminID, "refTable", refTable, "refID", refID)
	if adminID == uuid.Nil {
		return nil, audit.ErrMissingAdmin
	}
	reason, err := chargeReason(refTable)
	if err != nil {
		return nil, err
	}

	var charge int64
	var userID uuid.UUID
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		original, err := repo.FindByRef(ctx, string(reason), refTable, refID)
		if err != nil {
			return err
		}
		charge, userID = -original.Delta, original.UserID
		receipt, err = s.ledger.Apply(ctx, uow, ledgersvc.Mutation{
			UserID:      userID,
			Delta:       charge,
			Reason:      ledger.ReasonRefund,
			Ref:         ledger.Ref{Table: refTable, ID: refID},
			Description: note,
		})
		return err
	})
	if err != nil {
		logger.Error("Refund failed", "error", err)
		return nil, err
	}
	logger.Info("Refund committed", "userID", userID, "coins", charge, "balance", receipt.Balance)

	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, notification.KindCoinsAdded, map[string]any{
			notification.KeyCoins:   charge,
			notification.KeyBalance: receipt.Balance,
			notification.KeyReason:  string(ledger.ReasonRefund),
			notification.KeyNote:    note,
		})
	}
	if s.auditor != nil {
		if aerr := s.auditor.Record(ctx, adminID, audit.ActionRefund, audit.EntityLedger,
			strconv.FormatInt(receipt.Entry.ID, 10), map[string]any{
				"user_id":   userID.String(),
				"ref_table": refTable,
				"ref_id":    refID.String(),
				"coins":     charge,
				"note":      note,
			}); aerr != nil {
			logger.Warn("Refund audit failed", "error", aerr)
		}
	}
	s.emit(ctx, logger, &events.CoinsRefunded{
		UserID:   userID,
		EntryID:  receipt.Entry.ID,
		RefTable: refTable,
		RefID:    refID,
		Amount:   charge,
		AdminID:  adminID,
	})
	return receipt, nil
}

func chargeReason(refTable string) (ledger.Reason, error) {
	switch refTable {
	case ledger.RefTablePosts:
		return ledger.ReasonPost, nil
	case ledger.RefTableConnections:
		return ledger.ReasonConnect, nil
	}
	return "", fmt.Errorf("%w: %q has no refundable charges", domain.ErrValidation, refTable)
}

func (s *Service) charged(
	ctx context.Context,
	userID uuid.UUID,
	kind pricing.ActionKind,
	ref ledger.Ref,
	cost int64,
	receipt *ledgersvc.Receipt,
) {
	logger := s.logger.With("userID", userID, "action", kind, "refID", ref.ID)
	if receipt.Entry == nil {
		logger.Info("free action, nothing charged")
		return
	}
	logger.Info("charge committed", "cost", cost, "balance", receipt.Balance, "entryID", receipt.Entry.ID)
	s.emit(ctx, logger, &events.CoinsCharged{
		UserID:   userID,
		EntryID:  receipt.Entry.ID,
		Action:   string(kind),
		RefTable: ref.Table,
		RefID:    ref.ID,
		Cost:     cost,
		Balance:  receipt.Balance,
	})
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
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		logger.Info(op+" refused", "error", err)
		return
	}
	logger.Error(op+" failed", "error", err)
}
