package post

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/google/uuid"
)

// Repository persists posts.
type Repository interface {
	Create(ctx context.Context, create *dto.PostCreate) error
	Get(ctx context.Context, id uuid.UUID) (*dto.PostRead, error)
}
