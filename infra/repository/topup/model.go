package topup

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topup represents a top-up record in the database.
type Topup struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID           `gorm:"type:uuid;not null;index"`
	AmountMvr           decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	PricePerCoin        decimal.Decimal     `gorm:"type:numeric(14,4);not null"`
	AppliedPricePerCoin decimal.NullDecimal `gorm:"type:numeric(14,4)"`
	SlipEvidence        string              `gorm:"type:text;not null"`
	Status              string              `gorm:"type:varchar(16);not null;index"`
	ComputedCoins       *int64
	AdminNote           string     `gorm:"type:text;not null"`
	ReviewedBy          *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName specifies the table name for the Topup model.
func (Topup) TableName() string {
	return "topups"
}
