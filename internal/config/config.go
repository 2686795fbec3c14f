// Package config defines the configuration structures for the RTO desk.
// No I/O lives here, only plain data types and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/RTO-Desk/internal/infrastructure/database/redis"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`

	// CORSAllowedOrigins lists the browser origins of the desk front end.
	// "*" allows any origin; "*.example.com" matches subdomains.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig describes how to reach the records backend.
type BackendConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	SessionCookieName string        `mapstructure:"session_cookie_name"`
	SessionToken      string        `mapstructure:"session_token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryMax          int           `mapstructure:"retry_max"`
	RetryWaitMin      time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax      time.Duration `mapstructure:"retry_wait_max"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// RedisConfig extends the client connection settings with the statistics
// cache parameters.  When Enabled is false the desk reads statistics straight
// from the backend.
type RedisConfig struct {
	redis.RedisConfig `mapstructure:",squash"`

	Enabled       bool          `mapstructure:"enabled"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	StatisticsTTL time.Duration `mapstructure:"statistics_ttl"`
}

// MetricsConfig controls the Prometheus registry and its scrape endpoint.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// DeskConfig holds the office-facing settings of the licence desk.
type DeskConfig struct {
	// Timezone is the IANA zone used to compute "today".
	Timezone        string `mapstructure:"timezone"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
	MaxPageSize     int    `mapstructure:"max_page_size"`
	ExpiryWindows   []int  `mapstructure:"expiry_windows"`
}

// Location resolves Timezone.
func (d DeskConfig) Location() (*time.Location, error) {
	return time.LoadLocation(d.Timezone)
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Backend BackendConfig     `mapstructure:"backend"`
	Redis   RedisConfig       `mapstructure:"redis"`
	Log     logging.LogConfig `mapstructure:"log"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Desk    DeskConfig        `mapstructure:"desk"`
}

// Validate performs semantic validation of the fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config: server.shutdown_timeout must not be negative")
	}

	// Backend
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: backend.base_url %q must be an absolute http(s) URL", c.Backend.BaseURL)
	}
	if c.Backend.RetryMax < 0 {
		return fmt.Errorf("config: backend.retry_max must be ≥ 0, got %d", c.Backend.RetryMax)
	}
	if c.Backend.RetryWaitMax < c.Backend.RetryWaitMin {
		return fmt.Errorf("config: backend.retry_wait_max must be ≥ backend.retry_wait_min")
	}
	if c.Backend.SessionToken != "" && c.Backend.SessionCookieName == "" {
		return fmt.Errorf("config: backend.session_cookie_name is required with a session token")
	}

	// Redis
	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return fmt.Errorf("config: redis.addr is required")
			}
		case "sentinel":
			if c.Redis.MasterName == "" || len(c.Redis.SentinelAddrs) == 0 {
				return fmt.Errorf("config: redis sentinel mode needs master_name and sentinel_addrs")
			}
		case "cluster":
			if len(c.Redis.ClusterAddrs) == 0 {
				return fmt.Errorf("config: redis.cluster_addrs must contain at least one address")
			}
		default:
			return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
		if c.Redis.StatisticsTTL <= 0 {
			return fmt.Errorf("config: redis.statistics_ttl must be positive")
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Namespace == "" {
			return fmt.Errorf("config: metrics.namespace is required")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("config: metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	// Desk
	if _, err := c.Desk.Location(); err != nil {
		return fmt.Errorf("config: desk.timezone %q: %w", c.Desk.Timezone, err)
	}
	if c.Desk.MaxPageSize < 1 || c.Desk.MaxPageSize > 100 {
		return fmt.Errorf("config: desk.max_page_size %d is out of range [1, 100]", c.Desk.MaxPageSize)
	}
	if c.Desk.DefaultPageSize < 1 || c.Desk.DefaultPageSize > c.Desk.MaxPageSize {
		return fmt.Errorf("config: desk.default_page_size %d must be within [1, %d]", c.Desk.DefaultPageSize, c.Desk.MaxPageSize)
	}
	if len(c.Desk.ExpiryWindows) == 0 {
		return fmt.Errorf("config: desk.expiry_windows must not be empty")
	}
	for _, w := range c.Desk.ExpiryWindows {
		if w <= 0 {
			return fmt.Errorf("config: desk.expiry_windows contains non-positive window %d", w)
		}
	}

	return nil
}
