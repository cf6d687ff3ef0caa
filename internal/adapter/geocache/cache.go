// Package geocache decorates a domain.Geocoder with caching. Lookups check an
// in-process LRU first, then an optional shared tier, and concurrent misses
// for the same key share a single provider call.
package geocache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a provider call shared by concurrent lookups.
const fetchTimeout = 30 * time.Second

// SharedCache is a second cache tier, typically RedisStore.
type SharedCache interface {
	Get(ctx context.Context, key string) (domain.GeocodingResult, bool, error)
	Set(ctx context.Context, key string, result domain.GeocodingResult) error
}

// CachedGeocoder wraps a Geocoder with an LRU cache and an optional shared tier.
type CachedGeocoder struct {
	inner   domain.Geocoder
	local   *lruCache[domain.GeocodingResult]
	shared  SharedCache
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder. shared may
// be nil.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, shared SharedCache, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		local:   newLRUCache[domain.GeocodingResult](maxEntries),
		shared:  shared,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := "fwd:" + normalizeQuery(query)
	return c.lookup(ctx, "forward", key, func(ctx context.Context) (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, query)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(ctx, "reverse", key, func(ctx context.Context) (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) lookup(ctx context.Context, method, key string, fetch func(context.Context) (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.local.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return result, nil
	}

	if c.shared != nil {
		result, ok, err := c.shared.Get(ctx, key)
		if err != nil {
			c.logger.Warn("shared geocode cache read failed", "key", key, "error", err)
		}
		if ok {
			c.local.put(key, result)
			c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
			return result, nil
		}
	}

	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()
	// The shared call outlives any single caller; each caller stops waiting
	// on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		result, err := fetch(fetchCtx)
		if err != nil {
			return result, err
		}
		// Only cache matches so a "not found" can be retried later.
		if result.Found() {
			c.local.put(key, result)
			if c.shared != nil {
				if err := c.shared.Set(fetchCtx, key, result); err != nil {
					c.logger.Warn("shared geocode cache write failed", "key", key, "error", err)
				}
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return domain.GeocodingResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.GeocodingResult{}, res.Err
		}
		return res.Val.(domain.GeocodingResult), nil
	}
}

// normalizeQuery folds case and whitespace so trivially different spellings
// of an address share a cache entry.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
