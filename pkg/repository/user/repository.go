package user

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for user data access operations.
type Repository interface {
	// Create inserts a new user with a zero balance. Opening coins are
	// credited through the ledger afterwards.
	Create(ctx context.Context, create *dto.UserCreate) error

	// Get retrieves a user by its ID as a read-optimized DTO.
	Get(ctx context.Context, id uuid.UUID) (*dto.UserRead, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*dto.UserRead, error)

	// UpdateStatus changes the moderation status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// SetTelegramChatID links a Telegram chat for notifications.
	SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID int64) error
}
