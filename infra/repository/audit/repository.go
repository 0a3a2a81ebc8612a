package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/atollmatch/atollmatch/infra/repository/dberr"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository/audit"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 100

type repository struct {
	db *gorm.DB
}

// New returns an audit repository bound to db.
func New(db *gorm.DB) audit.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, create *dto.AuditCreate) error {
	meta := datatypes.JSONMap{}
	for k, v := range create.Meta {
		meta[k] = v
	}
	row := &Log{
		ID:        create.ID,
		AdminID:   create.AdminID,
		Action:    create.Action,
		Entity:    create.Entity,
		EntityID:  create.EntityID,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	return dberr.Wrap("audit.create", r.db.WithContext(ctx).Create(row).Error)
}

func (r *repository) List(ctx context.Context, filter dto.AuditFilter) ([]*dto.AuditRead, error) {
	q := r.db.WithContext(ctx)
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []Log
	if err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, dberr.Wrap("audit.list", err)
	}
	out := make([]*dto.AuditRead, 0, len(rows))
	for _, row := range rows {
		out = append(out, &dto.AuditRead{
			ID:        row.ID,
			AdminID:   row.AdminID,
			Action:    row.Action,
			Entity:    row.Entity,
			EntityID:  row.EntityID,
			Meta:      normalizeMeta(row.Meta),
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// normalizeMeta turns the json.Number values datatypes.JSONMap decodes into
// int64 when integral and float64 otherwise.
func normalizeMeta(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		return normalizeMeta(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}
