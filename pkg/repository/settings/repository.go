package settings

import (
	"context"

	"github.com/atollmatch/atollmatch/pkg/dto"
)

// Repository stores the single pricing settings row.
type Repository interface {
	// Get returns domain.ErrNotFound when the row was never written.
	Get(ctx context.Context) (*dto.SettingsRead, error)
	// Save replaces the row, creating it when missing.
	Save(ctx context.Context, write *dto.SettingsWrite) error
	// CreateIfMissing writes the row only when none exists and reports
	// whether it did.
	CreateIfMissing(ctx context.Context, write *dto.SettingsWrite) (bool, error)
}
