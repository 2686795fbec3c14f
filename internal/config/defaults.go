package config

import "time"

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxBodySize     = 1 << 20

	DefaultBackendTimeout = 30 * time.Second
	DefaultRetryMax       = 3
	DefaultRetryWaitMin   = 500 * time.Millisecond
	DefaultRetryWaitMax   = 5 * time.Second
	DefaultUserAgent      = "rto-desk"

	DefaultRedisMode     = "standalone"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "rtodesk:"
	DefaultStatisticsTTL = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "rtodesk"
	DefaultMetricsPath      = "/metrics"

	DefaultTimezone    = "Asia/Kolkata"
	DefaultPageSize    = 10
	DefaultMaxPageSize = 100
)

// DefaultExpiryWindows lists the learner-expiry windows, in days, the desk offers.
var DefaultExpiryWindows = []int{30, 45}

// ApplyDefaults fills every zero-value field in cfg with the desk default.
// Fields already set are left unchanged so explicit configuration wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}

	// ── Backend ───────────────────────────────────────────────────────────────
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = DefaultBackendTimeout
	}
	// RetryMax 0 is a valid explicit "no retries"; the loader seeds DefaultRetryMax.
	if cfg.Backend.RetryWaitMin == 0 {
		cfg.Backend.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.Backend.RetryWaitMax == 0 {
		cfg.Backend.RetryWaitMax = DefaultRetryWaitMax
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = DefaultUserAgent
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" && cfg.Redis.Mode == DefaultRedisMode {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.StatisticsTTL == 0 {
		cfg.Redis.StatisticsTTL = DefaultStatisticsTTL
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Desk ──────────────────────────────────────────────────────────────────
	if cfg.Desk.Timezone == "" {
		cfg.Desk.Timezone = DefaultTimezone
	}
	if cfg.Desk.DefaultPageSize == 0 {
		cfg.Desk.DefaultPageSize = DefaultPageSize
	}
	if cfg.Desk.MaxPageSize == 0 {
		cfg.Desk.MaxPageSize = DefaultMaxPageSize
	}
	if len(cfg.Desk.ExpiryWindows) == 0 {
		cfg.Desk.ExpiryWindows = append([]int(nil), DefaultExpiryWindows...)
	}
}
