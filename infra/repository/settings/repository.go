package settings

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// New returns a settings repository bound to db.
func New(db *gorm.DB) settings.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*dto.SettingsRead, error) {
	var row Settings
	if err := r.db.WithContext(ctx).Where("id = ?", singletonID).First(&row).Error; err != nil {
		return nil, dberr.Wrap("settings.get", err)
	}
	return &dto.SettingsRead{
		CoinPriceMvr: row.CoinPriceMvr,
		CostPost:     row.CostPost,
		CostConnect:  row.CostConnect,
		UpdatedBy:    row.UpdatedBy,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (r *repository) Save(ctx context.Context, write *dto.SettingsWrite) error {
	row := toModel(write)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"coin_price_mvr", "cost_post", "cost_connect", "updated_by", "updated_at"}),
	}).Create(row).Error
	return dberr.Wrap("settings.save", err)
}

func (r *repository) CreateIfMissing(ctx context.Context, write *dto.SettingsWrite) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(toModel(write))
	if res.Error != nil {
		return false, dberr.Wrap("settings.create_if_missing", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func toModel(w *dto.SettingsWrite) *Settings {
	return &Settings{
		ID:           singletonID,
		CoinPriceMvr: w.CoinPriceMvr,
		CostPost:     w.CostPost,
		CostConnect:  w.CostConnect,
		UpdatedBy:    w.UpdatedBy,
		UpdatedAt:    time.Now().UTC(),
	}
}
