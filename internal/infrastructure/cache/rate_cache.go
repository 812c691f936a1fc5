package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/rates"
	"go.uber.org/zap"
)

// Store is the byte-level cache both tiers implement
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// RateConfigCache caches resolved rate definitions in two tiers: a local
// in-memory store in front of an optional shared Redis store. Reads fall
// through L1 to L2 to the repository; writes through RateService
// invalidate the whole fleet's entries. Cache failures degrade to
// repository reads, never to errors.
type RateConfigCache struct {
	l1     Store
	l2     Store // nil when Redis is disabled
	ttl    time.Duration
	logger *zap.Logger
}

// NewRateConfigCache creates a new tiered rate cache. l2 may be nil.
func NewRateConfigCache(l1, l2 Store, ttl time.Duration, logger *zap.Logger) *RateConfigCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateConfigCache{l1: l1, l2: l2, ttl: ttl, logger: logger}
}

func rateKey(fleetID uuid.UUID, name string, date time.Time) string {
	return fmt.Sprintf("rates:%s:%s:%s", fleetID, name, date.Format("2006-01-02"))
}

func fleetPrefix(fleetID uuid.UUID) string {
	return fmt.Sprintf("rates:%s:", fleetID)
}

// GetDefinition returns the cached definition effective for the name and
// date, promoting L2 hits into L1
func (c *RateConfigCache) GetDefinition(ctx context.Context, fleetID uuid.UUID, name string, date time.Time) (*rates.RateDefinition, bool) {
	key := rateKey(fleetID, name, date)

	if rd, ok := c.getFrom(ctx, c.l1, key, "l1"); ok {
		return rd, true
	}
	if c.l2 == nil {
		return nil, false
	}
	rd, ok := c.getFrom(ctx, c.l2, key, "l2")
	if !ok {
		return nil, false
	}
	if data, err := json.Marshal(rd); err == nil {
		if err := c.l1.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("L1 rate cache promotion failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rd, true
}

// SetDefinition caches the definition for the name and date in both tiers
func (c *RateConfigCache) SetDefinition(ctx context.Context, fleetID uuid.UUID, name string, date time.Time, rd *rates.RateDefinition) {
	data, err := json.Marshal(rd)
	if err != nil {
		c.logger.Warn("Rate cache marshal failed", zap.String("name", name), zap.Error(err))
		return
	}

	key := rateKey(fleetID, name, date)
	if err := c.l1.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("L1 rate cache set failed", zap.String("key", key), zap.Error(err))
	}
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("L2 rate cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// InvalidateFleet drops every cached entry for the fleet in both tiers
func (c *RateConfigCache) InvalidateFleet(ctx context.Context, fleetID uuid.UUID) error {
	prefix := fleetPrefix(fleetID)
	if err := c.l1.DeletePrefix(ctx, prefix); err != nil {
		return fmt.Errorf("invalidate L1 for fleet %s: %w", fleetID, err)
	}
	if c.l2 != nil {
		if err := c.l2.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("invalidate L2 for fleet %s: %w", fleetID, err)
		}
	}
	return nil
}

func (c *RateConfigCache) getFrom(ctx context.Context, store Store, key, tier string) (*rates.RateDefinition, bool) {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Rate cache read failed",
			zap.String("tier", tier),
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rd rates.RateDefinition
	if err := json.Unmarshal(data, &rd); err != nil {
		c.logger.Warn("Rate cache entry corrupt, dropping",
			zap.String("tier", tier),
			zap.String("key", key),
			zap.Error(err))
		if delErr := store.Delete(ctx, key); delErr != nil {
			c.logger.Warn("Rate cache drop failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, false
	}
	return &rd, true
}

// CachingDefinitionRepository decorates a RateDefinitionRepository with
// the tiered cache on the hot resolution path (FindByNameOn). Admin reads
// pass through; writes delegate and invalidate the fleet.
type CachingDefinitionRepository struct {
	inner rates.RateDefinitionRepository
	cache *RateConfigCache
}

// NewCachingDefinitionRepository creates the caching decorator
func NewCachingDefinitionRepository(inner rates.RateDefinitionRepository, cache *RateConfigCache) *CachingDefinitionRepository {
	return &CachingDefinitionRepository{inner: inner, cache: cache}
}

// FindByID passes through to the inner repository
func (r *CachingDefinitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*rates.RateDefinition, error) {
	return r.inner.FindByID(ctx, id)
}

// FindByIDForFleet passes through to the inner repository
func (r *CachingDefinitionRepository) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*rates.RateDefinition, error) {
	return r.inner.FindByIDForFleet(ctx, fleetID, id)
}

// FindByNameOn serves the resolution path through the cache
func (r *CachingDefinitionRepository) FindByNameOn(ctx context.Context, fleetID uuid.UUID, name string, date time.Time) (*rates.RateDefinition, error) {
	if rd, ok := r.cache.GetDefinition(ctx, fleetID, name, date); ok {
		return rd, nil
	}

	rd, err := r.inner.FindByNameOn(ctx, fleetID, name, date)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefinition(ctx, fleetID, name, date, rd)
	return rd, nil
}

// FindAllByName passes through to the inner repository
func (r *CachingDefinitionRepository) FindAllByName(ctx context.Context, fleetID uuid.UUID, name string) ([]rates.RateDefinition, error) {
	return r.inner.FindAllByName(ctx, fleetID, name)
}

// FindAllForFleet passes through to the inner repository
func (r *CachingDefinitionRepository) FindAllForFleet(ctx context.Context, fleetID uuid.UUID) ([]rates.RateDefinition, error) {
	return r.inner.FindAllForFleet(ctx, fleetID)
}

// Save delegates and invalidates the fleet's cached entries
func (r *CachingDefinitionRepository) Save(ctx context.Context, rd *rates.RateDefinition) error {
	if err := r.inner.Save(ctx, rd); err != nil {
		return err
	}
	return r.cache.InvalidateFleet(ctx, rd.FleetID)
}

// SaveWithLock delegates and invalidates the fleet's cached entries
func (r *CachingDefinitionRepository) SaveWithLock(ctx context.Context, rd *rates.RateDefinition) error {
	if err := r.inner.SaveWithLock(ctx, rd); err != nil {
		return err
	}
	return r.cache.InvalidateFleet(ctx, rd.FleetID)
}
