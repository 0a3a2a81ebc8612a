package audit

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
)

// Repository persists the admin audit trail.
type Repository interface {
	Create(ctx context.Context, create *dto.AuditCreate) error
	// List returns matching rows newest first.
	List(ctx context.Context, filter dto.AuditFilter) ([]*dto.AuditRead, error)
}
