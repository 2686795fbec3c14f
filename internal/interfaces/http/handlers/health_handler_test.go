package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RTO-Desk/internal/infrastructure/database/redis"
	prom "github.com/turtacn/RTO-Desk/internal/infrastructure/monitoring/prometheus"
)

func okCheck(name string) HealthChecker {
	return HealthCheckFunc{Component: name, Fn: func(context.Context) error { return nil }}
}

func failingCheck(name string) HealthChecker {
	return HealthCheckFunc{Component: name, Fn: func(context.Context) error { return errors.New("connection refused") }}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", nil, failingCheck("backend"))

	w := serve(http.HandlerFunc(h.Liveness), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		w := serve(http.HandlerFunc(NewHealthHandler("dev", nil).Readiness), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler("dev", nil, okCheck("backend"), okCheck("redis"))
		w := serve(http.HandlerFunc(h.Readiness), http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Len(t, resp.Components, 2)
	})

	t.Run("one failing", func(t *testing.T) {
		h := NewHealthHandler("dev", nil, okCheck("backend"), failingCheck("redis"))
		w := serve(http.HandlerFunc(h.Readiness), http.MethodGet, "/readyz", "")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["redis"].Status)
		assert.Equal(t, "connection refused", resp.Components["redis"].Error)
		assert.Equal(t, "healthy", resp.Components["backend"].Status)
	})
}

func TestHealthHandler_RedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.RedisConfig{Mode: "standalone", Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	h := NewHealthHandler("dev", nil, HealthCheckFunc{Component: "redis", Fn: client.Ping})
	w := serve(http.HandlerFunc(h.Readiness), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	mr.Close()
	w = serve(http.HandlerFunc(h.Readiness), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler_RecordsHealthGauge(t *testing.T) {
	collector, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "health"}, nil)
	require.NoError(t, err)
	metrics := prom.NewAppMetrics(collector)

	h := NewHealthHandler("dev", metrics, okCheck("backend"), failingCheck("redis"))
	serve(http.HandlerFunc(h.Readiness), http.MethodGet, "/readyz", "")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `health_health_check_status{component="backend"} 1`)
	assert.Contains(t, body, `health_health_check_status{component="redis"} 0`)
}
