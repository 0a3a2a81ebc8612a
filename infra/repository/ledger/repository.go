package ledger

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New returns a ledger repository bound to db.
func New(db *gorm.DB) ledger.Repository {
	return &repository{db: db}
}

func (r *repository) Append(
	ctx context.Context,
	create *dto.LedgerEntryCreate,
) (*dto.LedgerEntryRead, error) {
	row := &Entry{
		UserID:      create.UserID,
		Delta:       create.Delta,
		Reason:      create.Reason,
		RefID:       create.RefID,
		Description: create.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if create.RefTable != "" {
		table := create.RefTable
		row.RefTable = &table
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, dberr.Wrap("ledger.append", err)
	}
	return mapModelToDTO(row), nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	beforeID int64,
) ([]*dto.LedgerEntryRead, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var rows []Entry
	if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, dberr.Wrap("ledger.list", err)
	}
	result := make([]*dto.LedgerEntryRead, 0, len(rows))
	for i := range rows {
		result = append(result, mapModelToDTO(&rows[i]))
	}
	return result, nil
}

func (r *repository) SumByUser(
	ctx context.Context,
	userID uuid.UUID,
) (int64, int64, error) {
	var agg struct {
		Total   int64
		Entries int64
	}
	err := r.db.WithContext(ctx).Model(&Entry{}).
		Select("COALESCE(SUM(delta), 0) AS total, COUNT(*) AS entries").
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, dberr.Wrap("ledger.sum", err)
	}
	return agg.Total, agg.Entries, nil
}

func (r *repository) FindByRef(
	ctx context.Context,
	reason, refTable string,
	refID uuid.UUID,
) (*dto.LedgerEntryRead, error) {
	var row Entry
	err := r.db.WithContext(ctx).
		Where("reason = ? AND ref_table = ? AND ref_id = ?", reason, refTable, refID).
		First(&row).Error
	if err != nil {
		return nil, dberr.Wrap("ledger.find_by_ref", err)
	}
	return mapModelToDTO(&row), nil
}

func mapModelToDTO(e *Entry) *dto.LedgerEntryRead {
	out := &dto.LedgerEntryRead{
		ID:          e.ID,
		UserID:      e.UserID,
		Delta:       e.Delta,
		Reason:      e.Reason,
		RefID:       e.RefID,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.RefTable != nil {
		out.RefTable = *e.RefTable
	}
	return out
}
