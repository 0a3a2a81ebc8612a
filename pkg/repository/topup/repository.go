package topup

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/google/uuid"
)

// Repository persists top-up claims.
type Repository interface {
	Create(ctx context.Context, create *dto.TopupCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.TopupRead, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*dto.TopupRead, error)
	// ListByStatus lists top-ups oldest first; an empty status lists all.
	ListByStatus(ctx context.Context, status string) ([]*dto.TopupRead, error)

	// Review writes a terminal transition only if the top-up is still
	// PENDING. It returns domain.ErrConflict when no PENDING row matched.
	Review(ctx context.Context, id uuid.UUID, review *dto.TopupReview) error
}
