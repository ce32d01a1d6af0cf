// Package monitoring provides metrics and observability for the SmartEdu client
package monitoring

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend client metrics
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_backend_requests_total",
			Help: "Total number of requests sent to the SmartEdu backend",
		},
		[]string{"method", "route", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartedu_backend_request_duration_seconds",
			Help:    "Duration of SmartEdu backend requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Generation metrics
	generationTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_generation_triggers_total",
			Help: "Total number of generation jobs requested",
		},
		[]string{"kind", "status"},
	)

	pollAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_poll_attempts_total",
			Help: "Total number of generation poll fetches by outcome",
		},
		[]string{"kind", "outcome"},
	)

	watchersFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_watchers_finished_total",
			Help: "Total number of generation watchers that reached a terminal state",
		},
		[]string{"kind", "state"},
	)

	watchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartedu_watch_duration_seconds",
			Help:    "Time from watcher start to terminal state",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900, 1440},
		},
		[]string{"kind", "state"},
	)

	activeWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smartedu_active_watchers",
			Help: "Number of generation watchers currently polling",
		},
	)

	// Cache metrics
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"operation"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"operation"},
	)

	// HTTP metrics for the local server
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartedu_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartedu_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// Window counters read and reset by the alert rules.
var (
	windowWatchersFinished atomic.Int64
	windowWatchersTimedOut atomic.Int64
	windowBackendRequests  atomic.Int64
	windowBackendErrors    atomic.Int64
)

// RecordBackendRequest records metrics for a SmartEdu backend call. route is
// the path template (e.g. "/module/{id}") to keep label cardinality bounded.
func RecordBackendRequest(method, route, status string, duration float64) {
	backendRequestsTotal.WithLabelValues(method, route, status).Inc()
	backendRequestDuration.WithLabelValues(method, route, status).Observe(duration)
	windowBackendRequests.Add(1)
	if status == "error" || (len(status) == 3 && status[0] == '5') {
		windowBackendErrors.Add(1)
	}
}

// RecordGenerationTrigger records a generation trigger attempt
func RecordGenerationTrigger(kind, status string) {
	generationTriggersTotal.WithLabelValues(kind, status).Inc()
}

// RecordPollAttempt records one watcher fetch and its classification
func RecordPollAttempt(kind, outcome string) {
	pollAttemptsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordWatcherFinished records a watcher reaching a terminal state
func RecordWatcherFinished(kind, state string, duration float64) {
	watchersFinishedTotal.WithLabelValues(kind, state).Inc()
	watchDuration.WithLabelValues(kind, state).Observe(duration)
	windowWatchersFinished.Add(1)
	if state == "timed_out" {
		windowWatchersTimedOut.Add(1)
	}
}

// WatcherStarted increments the active watchers gauge
func WatcherStarted() {
	activeWatchers.Inc()
}

// WatcherStopped decrements the active watchers gauge
func WatcherStopped() {
	activeWatchers.Dec()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(operation string) {
	cacheHits.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(operation string) {
	cacheMisses.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}
