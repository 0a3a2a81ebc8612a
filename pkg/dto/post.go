package dto

import (
	"time"

	"github.com/google/uuid"
)

// PostCreate is the user request body for a new post. ID and UserID are
// filled by the service.
type PostCreate struct {
	ID     uuid.UUID `json:"-"`
	UserID uuid.UUID `json:"-"`
	Title  string    `json:"title" validate:"required,min=3,max=120"`
	Body   string    `json:"body" validate:"required,max=5000"`
}

// PostRead is a read-optimized view of a post.
type PostRead struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
