package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user record in the database. Coins is the stored
// balance counter; the CHECK constraint backs the non-negative invariant
// at the storage level.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null;size:50"`
	Status         string    `gorm:"type:varchar(16);not null;index"`
	Coins          int64     `gorm:"not null;check:chk_users_coins_non_negative,coins >= 0"`
	TelegramChatID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
