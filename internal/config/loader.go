package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
)

// envPrefix is the environment variable prefix used by every desk setting.
const envPrefix = "RTOADM"

// envKeys lists every setting that can be supplied through the environment.
// viper only resolves environment variables for keys it already knows, so
// each one is bound explicitly.
var envKeys = []string{
	"server.host", "server.port", "server.read_timeout", "server.write_timeout",
	"server.idle_timeout", "server.shutdown_timeout", "server.max_body_size",
	"server.request_timeout", "server.cors_allowed_origins",

	"backend.base_url", "backend.api_key", "backend.session_cookie_name",
	"backend.session_token", "backend.timeout", "backend.retry_max",
	"backend.retry_wait_min", "backend.retry_wait_max", "backend.user_agent",

	"redis.enabled", "redis.mode", "redis.addr", "redis.master_name",
	"redis.sentinel_addrs", "redis.cluster_addrs", "redis.password", "redis.username",
	"redis.db", "redis.pool_size", "redis.min_idle_conns", "redis.dial_timeout",
	"redis.read_timeout", "redis.write_timeout", "redis.tls_enabled", "redis.tls_ca_file",
	"redis.tls_insecure", "redis.max_retries", "redis.key_prefix", "redis.statistics_ttl",

	"log.level", "log.format", "log.output_paths", "log.error_output_paths",

	"metrics.enabled", "metrics.namespace", "metrics.path",
	"metrics.enable_process_metrics", "metrics.enable_go_metrics",

	"desk.timezone", "desk.default_page_size", "desk.max_page_size", "desk.expiry_windows",
}

// newViper builds a Viper instance with YAML file type, the RTOADM_ env
// prefix, and "." → "_" key mapping so "backend.base_url" resolves to
// RTOADM_BACKEND_BASE_URL.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Defaults whose zero value is itself meaningful live here rather than in
	// ApplyDefaults.
	v.SetDefault("backend.retry_max", DefaultRetryMax)
	v.SetDefault("metrics.enabled", true)
	return v
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.  With no
// arguments it reads ./.env and silently ignores its absence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("config: failed to load env files %v: %w", paths, err)
	}
	return nil
}

// Load reads the YAML file at configPath, merges RTOADM_* environment
// overrides, applies defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from RTOADM_* environment variables.
//
//	RTOADM_<SECTION>_<FIELD>   e.g.  RTOADM_BACKEND_BASE_URL, RTOADM_DESK_TIMEZONE
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadWithOverrides loads configPath when it is non-empty and the
// environment otherwise, then applies overrides keyed by setting name
// ("backend.base_url").  Overrides take precedence over every other source;
// the CLI passes its flags through here.
func LoadWithOverrides(configPath string, overrides map[string]interface{}) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the re-parsed Config
// whenever the file changes on disk.  Only runtime-safe settings such as the
// log level should be applied by the callback.  A change that fails to parse
// or validate is logged and skipped.
//
// Watch is non-blocking; fsnotify events are delivered on a goroutine owned
// by viper.
func Watch(configPath string, logger logging.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			logger.Warn("ignoring invalid configuration change",
				logging.String("file", e.Name), logging.Err(err))
			return
		}
		logger.Info("configuration reloaded", logging.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
