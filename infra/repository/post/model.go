package post

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a published post.
type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"size:120;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}
