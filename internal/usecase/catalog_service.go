package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/Gunvolt24/courtdesk/internal/dedup"
	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports"
)

// DefaultCatalogTTL — срок жизни справочников (виды спорта, корты, праздники).
const DefaultCatalogTTL = 5 * time.Minute

const catalogPrefix = "catalog:"

// CatalogService — кэш справочников. Справочники меняются редко, поэтому
// кэшируются дольше идентичности; сброс — Invalidate или событие "catalog".
type CatalogService struct {
	api   ports.CatalogAPI
	cache ports.TTLCache
	dedup ports.Deduplicator
	log   ports.Logger

	ttl time.Duration
	gen generation
}

func NewCatalogService(
	api ports.CatalogAPI,
	cache ports.TTLCache,
	dd ports.Deduplicator,
	log ports.Logger,
	ttl time.Duration,
) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{api: api, cache: cache, dedup: dd, log: log, ttl: ttl}
}

// Sports — виды спорта.
func (c *CatalogService) Sports(ctx context.Context) ([]domain.Sport, error) {
	v, err := c.load(ctx, dedup.Key("sports"), func(ctx context.Context) (any, error) {
		return c.api.Sports(ctx)
	})
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to fetch sports", Err: err}
	}
	return append([]domain.Sport(nil), v.([]domain.Sport)...), nil
}

// Courts — корты вида спорта; sportID == 0 — все корты.
func (c *CatalogService) Courts(ctx context.Context, sportID int64) ([]domain.Court, error) {
	v, err := c.load(ctx, dedup.Key("courts", sportID), func(ctx context.Context) (any, error) {
		return c.api.Courts(ctx, sportID)
	})
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to fetch courts", Err: err}
	}
	return append([]domain.Court(nil), v.([]domain.Court)...), nil
}

// Holidays — праздники.
func (c *CatalogService) Holidays(ctx context.Context) ([]domain.Holiday, error) {
	v, err := c.load(ctx, dedup.Key("holidays"), func(ctx context.Context) (any, error) {
		return c.api.Holidays(ctx)
	})
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to fetch holidays", Err: err}
	}
	return append([]domain.Holiday(nil), v.([]domain.Holiday)...), nil
}

// IsNonOperatingDay — выпадает ли дата на праздник без работы клуба.
func (c *CatalogService) IsNonOperatingDay(ctx context.Context, date string) (bool, error) {
	hol, err := c.Holidays(ctx)
	if err != nil {
		return false, err
	}
	return domain.HasNoBusinessOperations(date, hol), nil
}

// Invalidate — сбросить все справочники.
func (c *CatalogService) Invalidate() {
	c.gen.invalidate(func() {
		for _, k := range c.cache.Keys() {
			if strings.HasPrefix(k, catalogPrefix) {
				c.cache.Delete(k)
			}
		}
	})
}

func (c *CatalogService) load(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	cacheKey := catalogPrefix + key
	if v, ok := c.cache.Get(cacheKey); ok {
		return v, nil
	}

	snap := c.gen.snapshot()
	return c.dedup.Do(ctx, dedupKey(cacheKey, snap), func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			c.log.Warnf(ctx, "catalog fetch %s failed: %v", key, err)
			return nil, err
		}
		_, _ = c.gen.commit(snap, func() error {
			c.cache.Set(cacheKey, v, c.ttl)
			return nil
		})
		return v, nil
	})
}
