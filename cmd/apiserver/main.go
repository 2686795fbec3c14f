// Command apiserver serves the licence desk over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/turtacn/RTO-Desk/internal/bootstrap"
	"github.com/turtacn/RTO-Desk/internal/config"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/RTO-Desk/internal/interfaces/http"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/handlers"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file; RTOADM_* variables are used when empty")
	envFile := flag.String("env-file", "", "load KEY=VALUE pairs from this file before reading the configuration")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, envFile string, port int) error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	overrides := map[string]interface{}{}
	if port > 0 {
		overrides["server.port"] = port
	}
	cfg, err := config.LoadWithOverrides(configPath, overrides)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	logger.Info("starting RTO desk API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("addr", cfg.Server.Addr()),
	)

	components, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if configPath != "" {
		err := config.Watch(configPath, logger, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level updated", logging.String("level", next.Log.Level))
			}
		})
		if err != nil {
			logger.Warn("configuration watch disabled", logging.Err(err))
		}
	}

	loc, err := cfg.Desk.Location()
	if err != nil {
		return err
	}
	routerCfg := httpserver.RouterConfig{
		DeskHandler:    handlers.NewDeskHandler(components.Desk, components.Statistics, loc, logger),
		HealthHandler:  handlers.NewHealthHandler(version, components.Metrics, healthCheckers(components)...),
		Logger:         logger.Named("http"),
		Metrics:        components.Metrics,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    cfg.Server.MaxBodySize,
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.CORSForOrigins(cfg.Server.CORSAllowedOrigins)
		routerCfg.CORS = &cors
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = components.Collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
		return err
	}
	return <-errCh
}
