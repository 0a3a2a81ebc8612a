package connection

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/google/uuid"
)

// Repository persists connection requests.
type Repository interface {
	Create(ctx context.Context, create *dto.ConnectionCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.ConnectionRead, error)
	// ExistsPending reports whether from already has a pending request to to.
	ExistsPending(ctx context.Context, from, to uuid.UUID) (bool, error)
}
