package settings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// singletonID is the primary key of the only settings row.
const singletonID = 1

// Settings represents the pricing singleton in the database.
type Settings struct {
	ID           int             `gorm:"primaryKey;autoIncrement:false"`
	CoinPriceMvr decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	CostPost     int64           `gorm:"not null"`
	CostConnect  int64           `gorm:"not null"`
	UpdatedBy    *uuid.UUID      `gorm:"type:uuid"`
	UpdatedAt    time.Time
}

// TableName specifies the table name for the Settings model.
func (Settings) TableName() string {
	return "settings"
}
