package licensing

import (
	"context"
	"time"

	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RTO-Desk/pkg/errors"
)

const statisticsCacheKey = "driving-licenses:statistics"

// CachedStatisticsSource serves tile counts from a read-through cache so a
// burst of desk views costs one statistics call per TTL.
type CachedStatisticsSource struct {
	inner   StatisticsSource
	cache   CachePort
	ttl     time.Duration
	metrics *prom.AppMetrics
	logger  logging.Logger
}

// NewCachedStatisticsSource wraps inner.  A nil cache disables caching.
func NewCachedStatisticsSource(inner StatisticsSource, cache CachePort, ttl time.Duration, metrics *prom.AppMetrics, logger logging.Logger) *CachedStatisticsSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStatisticsSource{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedStatisticsSource) Statistics(ctx context.Context) (*license.Statistics, error) {
	if c.cache == nil {
		return c.load(ctx)
	}

	loaded := false
	var stats license.Statistics
	err := c.cache.GetOrSet(ctx, statisticsCacheKey, &stats, c.ttl, func(ctx context.Context) (interface{}, error) {
		loaded = true
		return c.load(ctx)
	})
	if c.metrics != nil {
		prom.RecordCacheAccess(c.metrics, "statistics", !loaded)
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// load reads from the inner source.  An empty answer is an error so it is
// never cached.
func (c *CachedStatisticsSource) load(ctx context.Context) (*license.Statistics, error) {
	s, err := c.inner.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New(errors.ErrCodeStatisticsUnavailable, "backend returned no statistics")
	}
	return s, nil
}

// Invalidate drops the cached counts.
func (c *CachedStatisticsSource) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Delete(ctx, statisticsCacheKey); err != nil {
		c.logger.Warn("failed to invalidate statistics cache", logging.Err(err))
		return err
	}
	return nil
}
