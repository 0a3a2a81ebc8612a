package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Log represents one admin audit row.
type Log struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	AdminID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Action    string            `gorm:"type:varchar(32);not null"`
	Entity    string            `gorm:"type:varchar(32);not null;index:idx_audit_logs_entity,priority:1"`
	EntityID  string            `gorm:"type:varchar(64);not null;index:idx_audit_logs_entity,priority:2"`
	Meta      datatypes.JSONMap `gorm:"not null"`
	CreatedAt time.Time         `gorm:"not null;index"`
}

// TableName specifies the table name for the Log model.
func (Log) TableName() string {
	return "audit_logs"
}
