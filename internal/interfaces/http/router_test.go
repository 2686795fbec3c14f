package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RTO-Desk/internal/bootstrap"
	"github.com/turtacn/RTO-Desk/internal/config"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/handlers"
	"github.com/turtacn/RTO-Desk/internal/interfaces/http/middleware"
	"github.com/turtacn/RTO-Desk/internal/testutil"
)

const pagePayload = `{
	"data": [
		{"_id": "n1", "name": "Neha", "vehicleClass": "LMV", "llIssueDate": "2024-04-01", "LLExpiryDate": "2024-10-01", "balanceAmount": 0},
		{"_id": "y1", "name": "Yash", "vehicleClass": "LMV", "llIssueDate": "2024-05-25", "LLExpiryDate": "2024-11-25", "balanceAmount": 300}
	],
	"pagination": {"currentPage": 1, "totalPages": 1, "totalItems": 2}
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/driving-licenses/statistics":
			w.Write([]byte(`{"data": {"totalApplications": 2, "llEligibleForDLCount": 1, "pendingPaymentCount": 1, "pendingPaymentAmount": 300}}`))
		case "/driving-licenses":
			w.Write([]byte(pagePayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Backend.BaseURL = backend.URL
	cfg.Backend.RetryMax = 0
	cfg.Desk.Timezone = "UTC"

	logger := testutil.NewMockLogger()
	c, err := bootstrap.Build(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	loc, _ := cfg.Desk.Location()
	cors := middleware.CORSForOrigins([]string{"https://desk.rto.local"})
	return NewRouter(RouterConfig{
		DeskHandler: handlers.NewDeskHandler(c.Desk, c.Statistics, loc, logger),
		HealthHandler: handlers.NewHealthHandler("test", c.Metrics,
			handlers.HealthCheckFunc{Component: "backend", Fn: c.Gateway.Ping}),
		CORS:             &cors,
		Logger:           logger,
		Metrics:          c.Metrics,
		MetricsCollector: c.Collector,
		MetricsPath:      cfg.Metrics.Path,
		RequestTimeout:   5 * time.Second,
		MaxBodySize:      1024,
	})
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter_DeskView(t *testing.T) {
	router := newTestRouter(t)

	rec := get(router, "/api/v1/driving-licenses/view?filter=eligible&today=2024-06-01")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
	var body struct {
		Data struct {
			Rows []struct {
				Application struct {
					ID string `json:"id"`
				} `json:"application"`
				EligibleForUpgrade bool `json:"eligibleForUpgrade"`
			} `json:"rows"`
			FilterLabel string `json:"filterLabel"`
			Today       string `json:"today"`
			Tiles       struct {
				Available       bool  `json:"available"`
				LLEligibleForDL int64 `json:"llEligibleForDL"`
			} `json:"tiles"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 1)
	assert.True(t, body.Data.Rows[0].EligibleForUpgrade)
	assert.Equal(t, "LL eligible for DL", body.Data.FilterLabel)
	assert.Equal(t, "01-06-2024", body.Data.Today)
	assert.True(t, body.Data.Tiles.Available)
	assert.Equal(t, int64(1), body.Data.Tiles.LLEligibleForDL)
}

func TestRouter_ApplicationNotFound(t *testing.T) {
	rec := get(newTestRouter(t), "/api/v1/driving-licenses/unknown")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"LIC_001"`)
	assert.Contains(t, rec.Body.String(), `"requestId"`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(router, "/readyz").Code)

	get(router, "/api/v1/driving-licenses/statistics")
	rec := get(router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/v1/driving-licenses/statistics"`)
	assert.Contains(t, rec.Body.String(), `rtodesk_health_check_status{component="backend"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/driving-licenses/filter-state", nil)
	req.Header.Set("Origin", "https://desk.rto.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://desk.rto.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_BodyLimit(t *testing.T) {
	router := newTestRouter(t)

	body := `{"action": "class", "value": "` + strings.Repeat("x", 2048) + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/driving-licenses/filter-state", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := NewRouter(RouterConfig{})

	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/driving-licenses/view").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/healthz").Code)
}
