package topup

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/topup"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const statusPending = "PENDING"

type repository struct {
	db *gorm.DB
}

// New returns a top-up repository bound to db.
func New(db *gorm.DB) topup.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, create *dto.TopupCreate) error {
	row := &Topup{
		ID:           create.ID,
		UserID:       create.UserID,
		AmountMvr:    create.AmountMvr,
		PricePerCoin: create.PricePerCoin,
		SlipEvidence: create.SlipEvidence,
		Status:       create.Status,
		CreatedAt:    create.CreatedAt,
	}
	return dberr.Wrap("topup.create", r.db.WithContext(ctx).Create(row).Error)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.TopupRead, error) {
	var row Topup
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, dberr.Wrap("topup.get", err)
	}
	return mapModelToDTO(&row), nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*dto.TopupRead, error) {
	var rows []Topup
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, dberr.Wrap("topup.list_by_user", err)
	}
	return mapRows(rows), nil
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]*dto.TopupRead, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []Topup
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, dberr.Wrap("topup.list_by_status", err)
	}
	return mapRows(rows), nil
}

// Review is guarded by status = PENDING, so of two concurrent reviewers
// only the first to commit matches a row.
func (r *repository) Review(ctx context.Context, id uuid.UUID, review *dto.TopupReview) error {
	updates := map[string]any{
		"status":      review.Status,
		"admin_note":  review.AdminNote,
		"reviewed_by": review.ReviewedBy,
		"reviewed_at": review.ReviewedAt,
		"updated_at":  time.Now().UTC(),
	}
	if review.ComputedCoins != nil {
		updates["computed_coins"] = *review.ComputedCoins
	}
	if review.AppliedPricePerCoin != nil {
		updates["applied_price_per_coin"] = *review.AppliedPricePerCoin
	}
	res := r.db.WithContext(ctx).Model(&Topup{}).
		Where("id = ? AND status = ?", id, statusPending).
		Updates(updates)
	if res.Error != nil {
		return dberr.Wrap("topup.review", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func mapRows(rows []Topup) []*dto.TopupRead {
	out := make([]*dto.TopupRead, 0, len(rows))
	for i := range rows {
		out = append(out, mapModelToDTO(&rows[i]))
	}
	return out
}

func mapModelToDTO(t *Topup) *dto.TopupRead {
	out := &dto.TopupRead{
		ID:            t.ID,
		UserID:        t.UserID,
		AmountMvr:     t.AmountMvr,
		PricePerCoin:  t.PricePerCoin,
		SlipEvidence:  t.SlipEvidence,
		Status:        t.Status,
		ComputedCoins: t.ComputedCoins,
		AdminNote:     t.AdminNote,
		ReviewedBy:    t.ReviewedBy,
		ReviewedAt:    t.ReviewedAt,
		CreatedAt:     t.CreatedAt,
	}
	if t.AppliedPricePerCoin.Valid {
		price := t.AppliedPricePerCoin.Decimal
		out.AppliedPricePerCoin = &price
	}
	return out
}
