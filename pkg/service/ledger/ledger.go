// Package ledger provides the coin ledger service: the one primitive that
// moves coins, plus balance, history and reconciliation queries.
//
// Every balance change goes through Apply, which updates the stored counter
// and appends the explaining entry inside the caller's unit of work. Either
// both persist or neither does.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/notification"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	"github.com/google/uuid"
)

const (
	// DefaultPageSize is used when History is called without a limit.
	DefaultPageSize = 20
	// MaxPageSize caps a History page.
	MaxPageSize = 100
)

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

// Mutation describes one balance change.
type Mutation struct {
	UserID      uuid.UUID
	Delta       int64
	Reason      ledger.Reason
	Ref         ledger.Ref
	Description string
}

// Receipt is the outcome of an applied mutation.
type Receipt struct {
	Entry   *dto.LedgerEntryRead `json:"entry"`
	Balance int64                `json:"balance"`
}

// Service provides ledger operations.
type Service struct {
	uow      repository.UnitOfWork
	notifier Notifier
	auditor  Auditor
	logger   *slog.Logger
}

// NewService creates a new ledger Service.
func NewService(deps config.Deps, notifier Notifier, auditor Auditor) *Service {
	return &Service{
		uow:      deps.Uow,
		notifier: notifier,
		auditor:  auditor,
		logger:   deps.Logger,
	}
}

// Apply changes the balance by m.Delta and appends the matching entry
// using the repositories of uow. It must run inside uow.Do; any error
// it returns aborts that unit of work.
func (s *Service) Apply(ctx context.Context, uow repository.UnitOfWork, m Mutation) (*Receipt, error) {
	entry, err := ledger.NewEntry(m.UserID, m.Delta, m.Reason, m.Ref, m.Description)
	if err != nil {
		return nil, err
	}
	balanceRepo, err := uow.BalanceRepository()
	if err != nil {
		return nil, err
	}
	ledgerRepo, err := uow.LedgerRepository()
	if err != nil {
		return nil, err
	}

	balance, err := balanceRepo.ApplyDelta(ctx, entry.UserID, entry.Delta)
	if err != nil {
		return nil, err
	}

	create := &dto.LedgerEntryCreate{
		UserID:      entry.UserID,
		Delta:       entry.Delta,
		Reason:      string(entry.Reason),
		Description: entry.Description,
	}
	if !entry.Ref.IsZero() {
		refID := entry.Ref.ID
		create.RefTable = entry.Ref.Table
		create.RefID = &refID
	}
	read, err := ledgerRepo.Append(ctx, create)
	if err != nil {
		return nil, err
	}
	return &Receipt{Entry: read, Balance: balance}, nil
}

// Balance returns the current coin balance of userID.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	repo, err := s.uow.BalanceRepository()
	if err != nil {
		return 0, err
	}
	return repo.Get(ctx, userID)
}

// History returns one newest-first page of userID's entries. cursor is the
// NextCursor of the previous page, or 0 for the newest entries.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit int, cursor int64) (*dto.LedgerPage, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if cursor < 0 {
		cursor = 0
	}
	repo, err := s.uow.LedgerRepository()
	if err != nil {
		return nil, err
	}
	entries, err := repo.ListByUser(ctx, userID, limit, cursor)
	if err != nil {
		return nil, err
	}
	page := &dto.LedgerPage{Entries: entries}
	if len(entries) == limit {
		page.NextCursor = entries[len(entries)-1].ID
	}
	return page, nil
}

// Reconcile compares the stored balance with the sum of the ledger. Both
// are read in one transaction.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (rec *dto.Reconciliation, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		balanceRepo, err := uow.BalanceRepository()
		if err != nil {
			return err
		}
		ledgerRepo, err := uow.LedgerRepository()
		if err != nil {
			return err
		}
		balance, err := balanceRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		sum, count, err := ledgerRepo.SumByUser(ctx, userID)
		if err != nil {
			return err
		}
		rec = &dto.Reconciliation{
			UserID:     userID,
			Balance:    balance,
			LedgerSum:  sum,
			Entries:    count,
			Consistent: balance == sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Consistent {
		s.logger.Error("ledger drift detected",
			"userID", userID, "balance", rec.Balance, "ledgerSum", rec.LedgerSum)
	}
	return rec, nil
}

// Adjust applies a manual credit or debit by an admin. The entry carries
// reason OTHER and the note as description.
func (s *Service) Adjust(
	ctx context.Context,
	adminID, userID uuid.UUID,
	adj dto.CoinAdjustment,
) (receipt *Receipt, err error) {
	logger := s.logger.With("adminID", adminID, "userID", userID, "delta", adj.Delta)
	if adminID == uuid.Nil {
		return nil, audit.ErrMissingAdmin
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		receipt, err = s.Apply(ctx, uow, Mutation{
			UserID:      userID,
			Delta:       adj.Delta,
			Reason:      ledger.ReasonOther,
			Description: adj.Note,
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			logger.Error("Adjust failed", "error", err)
		}
		return nil, err
	}
	logger.Info("Adjust committed", "balance", receipt.Balance, "entryID", receipt.Entry.ID)

	kind, coins := notification.KindCoinsAdded, adj.Delta
	if adj.Delta < 0 {
		kind, coins = notification.KindCoinsRemoved, -adj.Delta
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, kind, map[string]any{
			notification.KeyCoins:   coins,
			notification.KeyBalance: receipt.Balance,
			notification.KeyNote:    adj.Note,
		})
	}
	if s.auditor != nil {
		if aerr := s.auditor.Record(ctx, adminID, audit.ActionCoinsAdjust, audit.EntityLedger,
			strconv.FormatInt(receipt.Entry.ID, 10), map[string]any{
				"user_id": userID.String(),
				"delta":   adj.Delta,
				"note":    adj.Note,
			}); aerr != nil {
			logger.Warn("Adjust audit failed", "error", aerr)
		}
	}
	return receipt, nil
}
