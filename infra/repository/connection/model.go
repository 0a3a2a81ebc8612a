package connection

import (
	"time"

	"github.com/google/uuid"
)

// StatusPending is the state of a request awaiting the recipient.
const StatusPending = "PENDING"

// Request represents a connection request between two users.
type Request struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_connection_requests_pair,priority:1"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_connection_requests_pair,priority:2"`
	Message    string    `gorm:"type:text;not null"`
	Status     string    `gorm:"type:varchar(16);not null"`
	CreatedAt  time.Time
}

// TableName specifies the table name for the Request model.
func (Request) TableName() string {
	return "connection_requests"
}
