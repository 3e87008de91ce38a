package redis

import (
	"context"
	"errors"
	"time"

	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/metrics"
)

const (
	catalogKey     = "catalog"
	schedulePrefix = "schedules:"
)

// readThrough loads key into dest from the cache, or calls load and stores
// the result. Cache errors are logged and never returned.
func readThrough[T any](ctx context.Context, c *Cache, name, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		metrics.RecordCacheLookup(name, true)
		return cached, nil
	}
	metrics.RecordCacheLookup(name, false)
	if !errors.Is(err, ErrCacheMiss) {
		c.log.Warn("cache read failed", logger.String("key", key), logger.Err(err))
	}

	fresh, err := load()
	if err != nil {
		return fresh, err
	}
	if err := c.Set(ctx, key, fresh, ttl); err != nil {
		c.log.Warn("cache write failed", logger.String("key", key), logger.Err(err))
	}
	return fresh, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// CachedCatalog wraps a CatalogReader with a TTL cache.
type CachedCatalog struct {
	next  progression.CatalogReader
	cache *Cache
	ttl   time.Duration
}

var _ progression.CatalogReader = (*CachedCatalog)(nil)

// NewCachedCatalog creates a CachedCatalog.
func NewCachedCatalog(next progression.CatalogReader, cache *Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, ttl: ttl}
}

// ListMilestones implements progression.CatalogReader.
func (c *CachedCatalog) ListMilestones(ctx context.Context) ([]progression.Milestone, error) {
	return readThrough(ctx, c.cache, "catalog", catalogKey, c.ttl, func() ([]progression.Milestone, error) {
		return c.next.ListMilestones(ctx)
	})
}

// Invalidate drops the cached catalog.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, catalogKey)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// CachedSchedules caches the per-group schedule list. Get is served from the
// same entry; the deadline scan always goes to the wrapped repository.
type CachedSchedules struct {
	next  schedule.Repository
	cache *Cache
	ttl   time.Duration
}

var _ schedule.Repository = (*CachedSchedules)(nil)

// NewCachedSchedules creates a CachedSchedules.
func NewCachedSchedules(next schedule.Repository, cache *Cache, ttl time.Duration) *CachedSchedules {
	return &CachedSchedules{next: next, cache: cache, ttl: ttl}
}

// ListByGroup implements schedule.Repository.
func (c *CachedSchedules) ListByGroup(ctx context.Context, careerGroupID string) ([]*schedule.PhaseSchedule, error) {
	return readThrough(ctx, c.cache, "schedules", schedulePrefix+careerGroupID, c.ttl, func() ([]*schedule.PhaseSchedule, error) {
		return c.next.ListByGroup(ctx, careerGroupID)
	})
}

// Get implements schedule.Repository.
func (c *CachedSchedules) Get(ctx context.Context, careerGroupID string, phase schedule.Phase) (*schedule.PhaseSchedule, error) {
	list, err := c.ListByGroup(ctx, careerGroupID)
	if err != nil {
		return nil, err
	}
	for _, ps := range list {
		if ps.Phase == phase {
			return ps, nil
		}
	}
	return nil, shared.ErrScheduleNotFound
}

// ListWithDeadlineBetween implements schedule.Repository.
func (c *CachedSchedules) ListWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*schedule.PhaseSchedule, error) {
	return c.next.ListWithDeadlineBetween(ctx, from, to)
}

// Upsert implements schedule.Repository and invalidates the group entry.
func (c *CachedSchedules) Upsert(ctx context.Context, ps *schedule.PhaseSchedule) error {
	if err := c.next.Upsert(ctx, ps); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, schedulePrefix+ps.CareerGroupID); err != nil {
		c.cache.log.Warn("cache invalidation failed",
			logger.GroupID(ps.CareerGroupID), logger.Err(err))
	}
	return nil
}
