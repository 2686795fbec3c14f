package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the desk exports.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Backend collaborator
	BackendRequestsTotal   CounterVec
	BackendRequestDuration HistogramVec

	// Desk views
	DeskViewsTotal       CounterVec
	DeskViewDuration     HistogramVec
	DeskRowsReturned     HistogramVec
	StatisticsDegraded   CounterVec
	StaleViewsTotal      CounterVec
	TileCount            GaugeVec
	PendingPaymentAmount GaugeVec

	// Cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Health
	HealthCheckStatus GaugeVec
}

var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultBackendDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultRowCountBuckets        = []float64{0, 1, 5, 10, 25, 50, 100}
)

// NewAppMetrics registers all metrics with collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.BackendRequestsTotal = collector.RegisterCounter("backend_requests_total", "Calls to the records backend", "endpoint", "outcome")
	m.BackendRequestDuration = collector.RegisterHistogram("backend_request_duration_seconds", "Records backend call duration", DefaultBackendDurationBuckets, "endpoint")

	m.DeskViewsTotal = collector.RegisterCounter("desk_views_total", "Desk views assembled", "filter", "outcome")
	m.DeskViewDuration = collector.RegisterHistogram("desk_view_duration_seconds", "Desk view assembly duration", DefaultBackendDurationBuckets, "filter")
	m.DeskRowsReturned = collector.RegisterHistogram("desk_rows_returned", "Rows left after reconciliation", DefaultRowCountBuckets, "filter")
	m.StatisticsDegraded = collector.RegisterCounter("desk_statistics_degraded_total", "Views rendered without tile statistics")
	m.StaleViewsTotal = collector.RegisterCounter("desk_stale_views_total", "Views discarded because a newer one was delivered")
	m.TileCount = collector.RegisterGauge("desk_tile_count", "Last dataset-wide tile counts", "tile")
	m.PendingPaymentAmount = collector.RegisterGauge("desk_pending_payment_amount", "Last dataset-wide pending payment amount")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordBackendCall(metrics *AppMetrics, endpoint string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDeskView records one View call. outcome is "ok", "stale" or "error".
func RecordDeskView(metrics *AppMetrics, filter, outcome string, rows int, duration time.Duration) {
	metrics.DeskViewsTotal.WithLabelValues(filter, outcome).Inc()
	metrics.DeskViewDuration.WithLabelValues(filter).Observe(duration.Seconds())
	if outcome == "ok" {
		metrics.DeskRowsReturned.WithLabelValues(filter).Observe(float64(rows))
	}
	if outcome == "stale" {
		metrics.StaleViewsTotal.WithLabelValues().Inc()
	}
}

func RecordTiles(metrics *AppMetrics, expiring, eligible, pendingCount int64, pendingAmount float64) {
	metrics.TileCount.WithLabelValues("ll_expiring").Set(float64(expiring))
	metrics.TileCount.WithLabelValues("ll_eligible_for_dl").Set(float64(eligible))
	metrics.TileCount.WithLabelValues("pending_payment").Set(float64(pendingCount))
	metrics.PendingPaymentAmount.WithLabelValues().Set(pendingAmount)
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordHealth(metrics *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}
