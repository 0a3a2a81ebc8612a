package dto

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionCreate is the user request body for a connection request.
type ConnectionCreate struct {
	ID         uuid.UUID `json:"-"`
	FromUserID uuid.UUID `json:"-"`
	ToUserID   uuid.UUID `json:"to_user_id" validate:"required"`
	Message    string    `json:"message" validate:"max=1000"`
}

// ConnectionRead is a read-optimized view of a connection request.
type ConnectionRead struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Message    string    `json:"message,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
