// Package user provides the identity operations the coin economy relies
// on: reading a user's moderation status, creating users with an opening
// balance and moderating profiles.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/google/uuid"
)

// Ledger applies balance changes inside a unit of work.
type Ledger interface {
	Apply(ctx context.Context, uow repository.UnitOfWork, m ledgersvc.Mutation) (*ledgersvc.Receipt, error)
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

// Service provides user operations.
type Service struct {
	uow     repository.UnitOfWork
	ledger  Ledger
	auditor Auditor
	logger  *slog.Logger
}

// NewService creates a new user Service.
func NewService(deps config.Deps, ledger Ledger, auditor Auditor) *Service {
	return &Service{
		uow:     deps.Uow,
		ledger:  ledger,
		auditor: auditor,
		logger:  deps.Logger,
	}
}

// Get returns the user with id. A missing user matches both
// user.ErrUserNotFound and domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	read, err := repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return toDomain(read), nil
}

// GetByUsername returns the user with username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	read, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	return toDomain(read), nil
}

// Create inserts a user. Opening coins are credited through the ledger in
// the same transaction, so the balance is explained from the first entry.
func (s *Service) Create(ctx context.Context, create dto.UserCreate) (u *user.User, err error) {
	if create.ID == uuid.Nil {
		create.ID = uuid.New()
	}
	if create.Status == "" {
		create.Status = string(user.StatusPending)
	}
	if !user.Status(create.Status).Valid() {
		return nil, user.ErrInvalidStatus
	}
	if create.OpeningCoins < 0 {
		return nil, fmt.Errorf("%w: opening coins cannot be negative", domain.ErrValidation)
	}
	logger := s.logger.With("userID", create.ID, "username", create.Username)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, &create); err != nil {
			return err
		}
		if create.OpeningCoins > 0 {
			if _, err := s.ledger.Apply(ctx, uow, ledgersvc.Mutation{
				UserID:      create.ID,
				Delta:       create.OpeningCoins,
				Reason:      ledger.ReasonOther,
				Ref:         ledger.Ref{Table: ledger.RefTableUsers, ID: create.ID},
				Description: "opening balance",
			}); err != nil {
				return err
			}
		}
		read, err := repo.Get(ctx, create.ID)
		if err != nil {
			return err
		}
		u = toDomain(read)
		return nil
	})
	if err != nil {
		logger.Error("Create failed", "error", err)
		return nil, err
	}
	logger.Info("user created", "status", u.Status, "coins", u.Coins)
	return u, nil
}

// SetStatus moderates a profile. Only APPROVED users may spend coins.
func (s *Service) SetStatus(
	ctx context.Context,
	adminID, userID uuid.UUID,
	status user.Status,
	note string,
) (*user.User, error) {
	if adminID == uuid.Nil {
		return nil, audit.ErrMissingAdmin
	}
	if !status.Valid() {
		return nil, user.ErrInvalidStatus
	}
	logger := s.logger.With("adminID", adminID, "userID", userID, "status", status)

	var prev user.Status
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		current, err := repo.Get(ctx, userID)
		if err != nil {
			return notFound(err)
		}
		prev = user.Status(current.Status)
		return repo.UpdateStatus(ctx, userID, string(status))
	})
	if err != nil {
		logger.Error("SetStatus failed", "error", err)
		return nil, err
	}
	logger.Info("user status changed", "previous", prev)

	if s.auditor != nil {
		if aerr := s.auditor.Record(ctx, adminID, audit.ActionUserStatus, audit.EntityUser, userID.String(),
			map[string]any{"from": string(prev), "to": string(status), "note": note}); aerr != nil {
			logger.Warn("SetStatus audit failed", "error", aerr)
		}
	}
	return s.Get(ctx, userID)
}

// LinkTelegram stores the chat that receives userID's notifications.
func (s *Service) LinkTelegram(ctx context.Context, userID uuid.UUID, chatID int64) error {
	repo, err := s.uow.UserRepository()
	if err != nil {
		return err
	}
	if err := repo.SetTelegramChatID(ctx, userID, chatID); err != nil {
		return notFound(err)
	}
	s.logger.Info("telegram chat linked", "userID", userID)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("%w: %w", user.ErrUserNotFound, err)
	}
	return err
}

func toDomain(r *dto.UserRead) *user.User {
	return &user.User{
		ID:             r.ID,
		Username:       r.Username,
		Status:         user.Status(r.Status),
		Coins:          r.Coins,
		TelegramChatID: r.TelegramChatID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
