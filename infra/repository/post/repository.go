package post

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/post"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New returns a post repository bound to db.
func New(db *gorm.DB) post.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, create *dto.PostCreate) error {
	row := &Post{
		ID:        create.ID,
		UserID:    create.UserID,
		Title:     create.Title,
		Body:      create.Body,
		CreatedAt: time.Now().UTC(),
	}
	return dberr.Wrap("post.create", r.db.WithContext(ctx).Create(row).Error)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.PostRead, error) {
	var row Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, dberr.Wrap("post.get", err)
	}
	return &dto.PostRead{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Body:      row.Body,
		CreatedAt: row.CreatedAt,
	}, nil
}
