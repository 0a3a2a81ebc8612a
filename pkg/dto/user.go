package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserCreate represents the data needed to create a new user.
type UserCreate struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username" validate:"required,min=3,max=50"`
	Status         string    `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED REJECTED SUSPENDED"`
	OpeningCoins   int64     `json:"opening_coins,omitempty" validate:"gte=0"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
}

// UserRead represents a read-optimized view of a user.
type UserRead struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Status         string    `json:"status"`
	Coins          int64     `json:"coins"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserStatusUpdate is the admin request body for profile moderation.
type UserStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED SUSPENDED"`
	Note   string `json:"note" validate:"max=500"`
}
