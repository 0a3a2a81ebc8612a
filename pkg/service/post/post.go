// Package post creates paid posts.
package post

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/atollmatch/atollmatch/pkg/service/spend"
	"github.com/google/uuid"
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

// Service provides post operations.
type Service struct {
	uow     repository.UnitOfWork
	charger Charger
	logger  *slog.Logger
}

// NewService creates a new post Service.
func NewService(deps config.Deps, charger Charger) *Service {
	return &Service{uow: deps.Uow, charger: charger, logger: deps.Logger}
}

// Create charges the POST cost and stores the post. Without enough coins
// no post is stored.
func (s *Service) Create(
	ctx context.Context,
	userID uuid.UUID,
	req dto.PostCreate,
) (*dto.PostRead, *ledgersvc.Receipt, error) {
	req.UserID = userID
	req.Title = strings.TrimSpace(req.Title)
	id, receipt, err := s.charger.ChargeAndCreate(ctx, userID, pricing.ActionPost, ledger.RefTablePosts,
		func(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID) error {
			repo, err := uow.PostRepository()
			if err != nil {
				return err
			}
			req.ID = id
			return repo.Create(ctx, &req)
		})
	if err != nil {
		return nil, nil, err
	}
	repo, err := s.uow.PostRepository()
	if err != nil {
		return nil, nil, err
	}
	p, err := repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("post created", "userID", userID, "postID", id, "balance", receipt.Balance)
	return p, receipt, nil
}
