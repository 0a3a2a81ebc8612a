package dto

import (
	"time"

	"github.com/google/uuid"
)

// AuditCreate is the input for one audit row.
type AuditCreate struct {
	ID       uuid.UUID
	AdminID  uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// AuditRead is a read-optimized view of an audit row.
type AuditRead struct {
	ID        uuid.UUID      `json:"id"`
	AdminID   uuid.UUID      `json:"admin_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFilter narrows an audit listing; empty fields match everything.
type AuditFilter struct {
	Entity   string
	EntityID string
	Limit    int
}
