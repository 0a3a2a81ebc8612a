// Package balance implements the stored coin counter on the users table.
package balance

import (
	"context"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/infra/repository/user"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/repository/balance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New returns a balance repository bound to db.
func New(db *gorm.DB) balance.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (int64, error) {
	var row user.User
	err := r.db.WithContext(ctx).
		Select("id", "coins").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		return 0, dberr.Wrap("balance.get", err)
	}
	return row.Coins, nil
}

// ApplyDelta is a single conditional UPDATE. The row lock it takes
// serializes concurrent changes to the same user, and the predicate keeps
// the balance non-negative without a read-modify-write window.
func (r *repository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ? AND coins + ? >= 0", userID, delta).
		Updates(map[string]any{
			"coins":      gorm.Expr("coins + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, dberr.Wrap("balance.apply_delta", res.Error)
	}
	if res.RowsAffected == 0 {
		// missing user (Get reports ErrNotFound) or a refused debit
		current, err := r.Get(ctx, userID)
		if err != nil {
			return 0, err
		}
		return 0, &ledger.InsufficientFundsError{UserID: userID, Balance: current, Required: -delta}
	}
	return r.Get(ctx, userID)
}
