package main

import (
	"context"

	"github.com/turtacn/RTO-Desk/internal/bootstrap"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/backend"
	"github.com/turtacn/RTO-Desk/internal/infrastructure/database/redis"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/handlers"
)

type backendHealthAdapter struct {
	gateway *backend.Gateway
}

func (a *backendHealthAdapter) Name() string {
	return "backend"
}

func (a *backendHealthAdapter) Check(ctx context.Context) error {
	return a.gateway.Ping(ctx)
}

type redisHealthAdapter struct {
	client *redis.Client
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// healthCheckers returns a checker per dependency in use.
func healthCheckers(c *bootstrap.Components) []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{&backendHealthAdapter{gateway: c.Gateway}}
	if c.Redis != nil {
		checkers = append(checkers, &redisHealthAdapter{client: c.Redis})
	}
	return checkers
}
