// Package pricing serves the coin price and per-action costs.
//
// The settings row is read far more often than it changes, so the service
// keeps one snapshot in memory for a configurable TTL. Concurrent cache
// misses share a single database read.
package pricing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "pricing"

// Auditor records admin actions.
type Auditor interface {
	Record(
		ctx context.Context,
		adminID uuid.UUID,
		action audit.Action,
		entity audit.Entity,
		entityID string,
		meta map[string]any,
	) error
}

// Service is the settings/pricing provider.
type Service struct {
	uow      repository.UnitOfWork
	auditor  Auditor
	logger   *slog.Logger
	defaults pricing.Pricing
	ttl      time.Duration

	mu       sync.RWMutex
	cached   *pricing.Pricing
	cachedAt time.Time
	inflight singleflight.Group
}

// NewService creates a pricing Service. Defaults and cache TTL come from
// deps.Config when present.
func NewService(deps config.Deps, auditor Auditor) *Service {
	s := &Service{
		uow:     deps.Uow,
		auditor: auditor,
		logger:  deps.Logger,
	}
	if deps.Config != nil && deps.Config.Pricing != nil {
		p := deps.Config.Pricing
		s.defaults = pricing.Pricing{
			CoinPriceMvr: p.CoinPriceMvr,
			CostPost:     p.CostPost,
			CostConnect:  p.CostConnect,
		}
		s.ttl = p.CacheTTL
	}
	return s
}

// GetPricing returns the current pricing snapshot. When the settings row
// has never been written the configured defaults apply.
func (s *Service) GetPricing(ctx context.Context) (pricing.Pricing, error) {
	if p, ok := s.fromCache(); ok {
		return p, nil
	}
	v, err, _ := s.inflight.Do(cacheKey, func() (any, error) {
		p, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(p)
		return p, nil
	})
	if err != nil {
		return pricing.Pricing{}, err
	}
	return v.(pricing.Pricing), nil
}

// Update applies a partial change, validates the result and persists it.
// The cache is dropped so the next read sees the new values.
func (s *Service) Update(ctx context.Context, adminID uuid.UUID, upd dto.PricingUpdate) (next pricing.Pricing, err error) {
	logger := s.logger.With("adminID", adminID)
	if adminID == uuid.Nil {
		return pricing.Pricing{}, audit.ErrMissingAdmin
	}
	var prev pricing.Pricing
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.SettingsRepository()
		if err != nil {
			return err
		}
		prev, err = s.current(ctx, repo)
		if err != nil {
			return err
		}
		next = prev
		if upd.CoinPriceMvr != nil {
			next.CoinPriceMvr = *upd.CoinPriceMvr
		}
		if upd.CostPost != nil {
			next.CostPost = *upd.CostPost
		}
		if upd.CostConnect != nil {
			next.CostConnect = *upd.CostConnect
		}
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()
		return repo.Save(ctx, &dto.SettingsWrite{
			CoinPriceMvr: next.CoinPriceMvr,
			CostPost:     next.CostPost,
			CostConnect:  next.CostConnect,
			UpdatedBy:    &adminID,
		})
	})
	if err != nil {
		logger.Error("Update failed", "error", err)
		return pricing.Pricing{}, err
	}
	s.Invalidate()
	logger.Info("pricing updated",
		"coinPriceMvr", next.CoinPriceMvr.String(), "costPost", next.CostPost, "costConnect", next.CostConnect)

	if s.auditor != nil {
		meta := map[string]any{
			"before": snapshotMeta(prev),
			"after":  snapshotMeta(next),
		}
		if aerr := s.auditor.Record(ctx, adminID, audit.ActionPricingUpdate, audit.EntitySettings, "1", meta); aerr != nil {
			logger.Warn("Update audit failed", "error", aerr)
		}
	}
	return next, nil
}

// EnsureDefaults writes the configured defaults when no settings row
// exists yet and reports whether it did.
func (s *Service) EnsureDefaults(ctx context.Context) (bool, error) {
	if err := s.defaults.Validate(); err != nil {
		return false, err
	}
	repo, err := s.uow.SettingsRepository()
	if err != nil {
		return false, err
	}
	created, err := repo.CreateIfMissing(ctx, &dto.SettingsWrite{
		CoinPriceMvr: s.defaults.CoinPriceMvr,
		CostPost:     s.defaults.CostPost,
		CostConnect:  s.defaults.CostConnect,
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("pricing defaults written",
			"coinPriceMvr", s.defaults.CoinPriceMvr.String(),
			"costPost", s.defaults.CostPost,
			"costConnect", s.defaults.CostConnect)
	}
	return created, nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	s.inflight.Forget(cacheKey)
}

func (s *Service) fromCache() (pricing.Pricing, bool) {
	if s.ttl <= 0 {
		return pricing.Pricing{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || time.Since(s.cachedAt) >= s.ttl {
		return pricing.Pricing{}, false
	}
	return *s.cached, true
}

func (s *Service) store(p pricing.Pricing) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.cached = &p
	s.cachedAt = time.Now()
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context) (pricing.Pricing, error) {
	repo, err := s.uow.SettingsRepository()
	if err != nil {
		return pricing.Pricing{}, err
	}
	return s.current(ctx, repo)
}

type settingsReader interface {
	Get(ctx context.Context) (*dto.SettingsRead, error)
}

func (s *Service) current(ctx context.Context, repo settingsReader) (pricing.Pricing, error) {
	row, err := repo.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		if verr := s.defaults.Validate(); verr != nil {
			return pricing.Pricing{}, err
		}
		return s.defaults, nil
	}
	if err != nil {
		return pricing.Pricing{}, err
	}
	return pricing.Pricing{
		CoinPriceMvr: row.CoinPriceMvr,
		CostPost:     row.CostPost,
		CostConnect:  row.CostConnect,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func snapshotMeta(p pricing.Pricing) map[string]any {
	return map[string]any{
		"coin_price_mvr": p.CoinPriceMvr.String(),
		"cost_post":      p.CostPost,
		"cost_connect":   p.CostConnect,
	}
}
