// Package bootstrap assembles the desk from configuration.  Both the API
// server and the rtoadm CLI build their dependencies here.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/RTO-Desk/internal/application/licensing"
	"github.com/turtacn/RTO-Desk/internal/config"
	"github.com/turtacn/RTO-Desk/internal/domain/license"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/backend"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/database/redis"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RTO-Desk/pkg/client"
)

// Components holds everything a process needs to serve the desk.  Redis and
// Statistics caching are absent when the cache is disabled or unreachable.
type Components struct {
	Config     *config.Config
	Logger     logging.Logger
	Collector  prom.MetricsCollector
	Metrics    *prom.AppMetrics
	Gateway    *backend.Gateway
	Redis      *redis.Client
	Statistics *licensing.CachedStatisticsSource
	Desk       licensing.DeskService
}

// Build wires the desk.  An unreachable Redis is logged and the desk runs
// uncached; every other failure is returned.
func Build(cfg *config.Config, logger logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	loc, err := cfg.Desk.Location()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: desk timezone: %w", err)
	}

	c := &Components{Config: cfg, Logger: logger}

	namespace := cfg.Metrics.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}
	c.Collector, err = prom.NewMetricsCollector(prom.CollectorConfig{
		Namespace:            namespace,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: metrics: %w", err)
	}
	c.Metrics = prom.NewAppMetrics(c.Collector)

	sdk, err := NewBackendClient(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}
	c.Gateway = backend.NewGateway(sdk.DrivingLicenses(), license.NewNormalizer(loc), c.Metrics, logger)

	var cache licensing.CachePort
	if cfg.Redis.Enabled {
		rc := cfg.Redis.RedisConfig
		rdb, err := redis.NewClient(&rc, logger)
		if err != nil {
			logger.Warn("redis unavailable, statistics will not be cached", logging.Err(err))
		} else {
			c.Redis = rdb
			cache = redis.NewRedisCache(rdb, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
		}
	}
	c.Statistics = licensing.NewCachedStatisticsSource(c.Gateway, cache, cfg.Redis.StatisticsTTL, c.Metrics, logger)

	c.Desk = licensing.NewDeskService(c.Gateway, c.Statistics, licensing.DeskServiceConfig{
		Location:        loc,
		DefaultPageSize: cfg.Desk.DefaultPageSize,
		MaxPageSize:     cfg.Desk.MaxPageSize,
		ExpiryWindows:   cfg.Desk.ExpiryWindows,
	}, logger, licensing.WithMetrics(c.Metrics))

	logger.Info("desk assembled",
		logging.String("backend", cfg.Backend.BaseURL),
		logging.String("timezone", loc.String()),
		logging.Bool("statistics_cached", c.Redis != nil),
	)
	return c, nil
}

// NewBackendClient builds the records backend SDK client from cfg.
func NewBackendClient(cfg config.BackendConfig, logger logging.Logger) (*client.Client, error) {
	sdk, err := client.NewClient(cfg.BaseURL, cfg.APIKey,
		client.WithTimeout(cfg.Timeout),
		client.WithRetryMax(cfg.RetryMax),
		client.WithRetryWait(cfg.RetryWaitMin, cfg.RetryWaitMax),
		client.WithUserAgent(cfg.UserAgent),
		client.WithSessionCookie(cfg.SessionCookieName, cfg.SessionToken),
		client.WithLogger(sdkLogger{logger.Named("sdk")}),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: backend client: %w", err)
	}
	return sdk, nil
}

// Close releases the Redis connection, if any.
func (c *Components) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}

// PingRedis reports Redis health; it is nil when Redis is not in use.
func (c *Components) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx)
}

// sdkLogger adapts the structured Logger to the SDK's printf-style one.
type sdkLogger struct {
	logging.Logger
}

func (l sdkLogger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l sdkLogger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l sdkLogger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
