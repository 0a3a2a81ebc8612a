// Package connection creates paid connection requests between users.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/atollmatch/atollmatch/pkg/service/spend"
	"github.com/google/uuid"
)

var (
	// ErrSelfRequest is returned when a user tries to connect to themselves.
	ErrSelfRequest = fmt.Errorf("%w: cannot send a connection request to yourself", domain.ErrValidation)
	// ErrTargetUnavailable is returned when the target is unknown or not
	// approved. Both look the same to the requester.
	ErrTargetUnavailable = fmt.Errorf("%w: target profile is not available", domain.ErrNotFound)
	// ErrDuplicateRequest is returned when a pending request already exists.
	ErrDuplicateRequest = fmt.Errorf("%w: a pending request to this user already exists", domain.ErrAlreadyExists)
)

// Charger pays for an entity and creates it in one unit of work.
type Charger interface {
	ChargeAndCreate(
		ctx context.Context,
		userID uuid.UUID,
		kind pricing.ActionKind,
		refTable string,
		create spend.CreateFunc,
	) (uuid.UUID, *ledgersvc.Receipt, error)
}

// UserReader loads a user's identity snapshot.
type UserReader interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service provides connection request operations.
type Service struct {
	uow     repository.UnitOfWork
	charger Charger
	users   UserReader
	logger  *slog.Logger
}

// NewService creates a new connection Service.
func NewService(deps config.Deps, charger Charger, users UserReader) *Service {
	return &Service{uow: deps.Uow, charger: charger, users: users, logger: deps.Logger}
}

// Request charges the CONNECT cost and files a pending request from
// fromID to toID. Every check that does not need the balance runs before
// the charge.
func (s *Service) Request(
	ctx context.Context,
	fromID, toID uuid.UUID,
	message string,
) (*dto.ConnectionRead, *ledgersvc.Receipt, error) {
	logger := s.logger.With("userID", fromID, "targetID", toID)
	if fromID == toID {
		return nil, nil, ErrSelfRequest
	}
	target, err := s.users.Get(ctx, toID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrTargetUnavailable
		}
		return nil, nil, err
	}
	if !target.IsApproved() {
		return nil, nil, ErrTargetUnavailable
	}
	repo, err := s.uow.ConnectionRepository()
	if err != nil {
		return nil, nil, err
	}
	if exists, err := repo.ExistsPending(ctx, fromID, toID); err != nil {
		return nil, nil, err
	} else if exists {
		return nil, nil, ErrDuplicateRequest
	}

	id, receipt, err := s.charger.ChargeAndCreate(ctx, fromID, pricing.ActionConnect, ledger.RefTableConnections,
		func(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error {
			repo, err := uow.ConnectionRepository()
			if err != nil {
				return err
			}
			// a concurrent request may have committed since the check above
			exists, err := repo.ExistsPending(ctx, fromID, toID)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateRequest
			}
			return repo.Create(ctx, &dto.ConnectionCreate{
				ID:         id,
				FromUserID: fromID,
				ToUserID:   toID,
				Message:    strings.TrimSpace(message),
			})
		})
	if err != nil {
		return nil, nil, err
	}
	req, err := repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connection requested", "requestID", id, "balance", receipt.Balance)
	return req, receipt, nil
}
