package connection

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/connection"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New returns a connection request repository bound to db.
func New(db *gorm.DB) connection.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, create *dto.ConnectionCreate) error {
	row := &Request{
		ID:         create.ID,
		FromUserID: create.FromUserID,
		ToUserID:   create.ToUserID,
		Message:    create.Message,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	return dberr.Wrap("connection.create", r.db.WithContext(ctx).Create(row).Error)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.ConnectionRead, error) {
	var row Request
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, dberr.Wrap("connection.get", err)
	}
	return &dto.ConnectionRead{
		ID:         row.ID,
		FromUserID: row.FromUserID,
		ToUserID:   row.ToUserID,
		Message:    row.Message,
		Status:     row.Status,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (r *repository) ExistsPending(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Request{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", from, to, StatusPending).
		Count(&count).Error
	if err != nil {
		return false, dberr.Wrap("connection.exists_pending", err)
	}
	return count > 0, nil
}
