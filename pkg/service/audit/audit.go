// Package audit records administrative actions. Writes happen after the
// audited operation committed, so a failure here never undoes the action;
// callers log it and move on.
package audit

import (
	"context"
	"log/slog"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	"github.com/google/uuid"
)

// Service persists and lists audit records.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new audit Service.
func NewService(deps config.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.Logger}
}

// Record stores one audit row.
func (s *Service) Record(
	ctx context.Context,
	adminID uuid.UUID,
	action audit.Action,
	entity audit.Entity,
	entityID string,
	meta map[string]any,
) error {
	rec, err := audit.New(adminID, action, entity, entityID, meta)
	if err != nil {
		return err
	}
	repo, err := s.uow.AuditRepository()
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, &dto.AuditCreate{
		ID:       rec.ID,
		AdminID:  rec.AdminID,
		Action:   string(rec.Action),
		Entity:   string(rec.Entity),
		EntityID: rec.EntityID,
		Meta:     rec.Meta,
	}); err != nil {
		s.logger.Error("Record failed: repo create error",
			"adminID", adminID, "action", action, "entityID", entityID, "error", err)
		return err
	}
	return nil
}

// List returns audit rows newest first.
func (s *Service) List(ctx context.Context, filter dto.AuditFilter) ([]*dto.AuditRead, error) {
	repo, err := s.uow.AuditRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}
