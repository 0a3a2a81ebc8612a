package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the
	// repository.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserUnauthorized is returned when the caller identity is missing or invalid.
	ErrUserUnauthorized = errors.New("user unauthorized")
	// ErrNotApproved is matched by every NotApprovedError.
	ErrNotApproved = errors.New("user profile not approved")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid user status")
)

// Status is the moderation state of a user profile.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusSuspended Status = "SUSPENDED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// User is the identity snapshot the ledger core reads: who the user is,
// whether moderation approved them, and their current coin balance.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Status         Status    `json:"status"`
	Coins          int64     `json:"coins"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"updated"`
}

// IsApproved reports whether the user may perform coin-costing actions.
func (u *User) IsApproved() bool {
	return u != nil && u.Status == StatusApproved
}

// RequireApproved returns a NotApprovedError unless the user is approved.
func (u *User) RequireApproved() error {
	if u == nil {
		return ErrUserNotFound
	}
	if u.IsApproved() {
		return nil
	}
	return &NotApprovedError{UserID: u.ID, Status: u.Status}
}

// NotApprovedError is returned when a user whose profile is not approved
// attempts a coin-costing action.
type NotApprovedError struct {
	UserID uuid.UUID
	Status Status
}

func (e *NotApprovedError) Error() string {
	if e.Status == StatusPending {
		return "profile pending approval: complete your profile and wait for an administrator to approve it"
	}
	return fmt.Sprintf("profile is %s: only approved profiles can spend coins", e.Status)
}

func (e *NotApprovedError) Is(target error) bool {
	return target == ErrNotApproved
}
