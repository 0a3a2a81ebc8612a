package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable ledger row. The unique index over
// (reason, ref_table, ref_id) allows a causing entity at most one entry per
// reason; rows without a ref are not constrained because NULLs never
// collide.
type Entry struct {
	ID          int64      `gorm:"primaryKey;autoIncrement;index:idx_ledger_entries_user_id_id,priority:2"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_ledger_entries_user_id_id,priority:1"`
	Delta       int64      `gorm:"not null;check:chk_ledger_entries_delta_nonzero,delta <> 0"`
	Reason      string     `gorm:"type:varchar(16);not null;uniqueIndex:uq_ledger_entries_reason_ref,priority:1"`
	RefTable    *string    `gorm:"type:varchar(64);uniqueIndex:uq_ledger_entries_reason_ref,priority:2"`
	RefID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_ledger_entries_reason_ref,priority:3"`
	Description string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "ledger_entries"
}
