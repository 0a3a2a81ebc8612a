package user

import (
	"context"
	"strings"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New returns a user repository bound to db.
func New(db *gorm.DB) user.Repository {
	return &repository{db: db}
}

func (r *repository) Create(
	ctx context.Context,
	create *dto.UserCreate,
) error {
	status := create.Status
	if status == "" {
		status = "PENDING"
	}
	row := &User{
		ID:             create.ID,
		Username:       strings.TrimSpace(create.Username),
		Status:         status,
		TelegramChatID: create.TelegramChatID,
	}
	return dberr.Wrap("user.create", r.db.WithContext(ctx).Create(row).Error)
}

func (r *repository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*dto.UserRead, error) {
	var row User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, dberr.Wrap("user.get", err)
	}
	return mapModelToDTO(&row), nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*dto.UserRead, error) {
	var row User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, dberr.Wrap("user.get_by_username", err)
	}
	return mapModelToDTO(&row), nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status string,
) error {
	return r.update(ctx, "user.update_status", id, map[string]any{"status": status})
}

func (r *repository) SetTelegramChatID(
	ctx context.Context,
	id uuid.UUID,
	chatID int64,
) error {
	return r.update(ctx, "user.set_telegram_chat", id, map[string]any{"telegram_chat_id": chatID})
}

func (r *repository) update(ctx context.Context, op string, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return dberr.Wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapModelToDTO(u *User) *dto.UserRead {
	return &dto.UserRead{
		ID:             u.ID,
		Username:       u.Username,
		Status:         u.Status,
		Coins:          u.Coins,
		TelegramChatID: u.TelegramChatID,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
