// Package telemetry provides application-level observability for the API.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<LDEV_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Watcher profile lookup counters (by outcome)
//   - CMS proxy counters (by content type and cache hit/miss)
//   - Image analysis duration histogram
//   - Usage log write failure counter
//   - Reaped session counter
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /v1/watcher/:discord_id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /v1/watcher/:discord_id),
// NOT the raw URL, to prevent unbounded cardinality.
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Proxy metrics.
//
// WatcherLookupsTotal is a CounterVec with label {result}: "found", "not_found",
// "banned", "opted_out".  A sudden spike in "banned" usually means a scraper.
//
// CMSRequestsTotal is a CounterVec with labels {content_type, cache} where cache
// is "hit" or "miss".  The hit ratio is the main signal for tuning the Redis TTL:
//
//	sum(rate(cms_requests_total{cache="hit"}[5m])) / sum(rate(cms_requests_total[5m]))
var (
	WatcherLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_lookups_total",
			Help: "Total number of watcher profile lookups, by result.",
		},
		[]string{"result"},
	)

	CMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_requests_total",
			Help: "Total number of CMS proxy requests, by content type and cache outcome.",
		},
		[]string{"content_type", "cache"},
	)
)

// ImageAnalysisDuration is a Histogram observing the full dominant-color
// pipeline (download + decode + clustering) per request.  The 10 s bucket edge
// matches the download timeout, so observations above it indicate slow decodes
// or pathological cluster counts rather than slow origins.
var ImageAnalysisDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "image_analysis_duration_seconds",
		Help:    "Duration of dominant color extraction, including image download.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	},
)

// UsageLogWriteFailuresTotal counts usage log inserts that failed after the
// response was already sent.  Logging is fire-and-forget so these failures are
// invisible to callers; this counter is the only place they surface.
// Alert on increase(usage_log_write_failures_total[15m]) > 0.
var UsageLogWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "usage_log_write_failures_total",
		Help: "Total number of asynchronous usage log writes that failed.",
	},
)

// SessionsReapedTotal is incremented by the session reaper job, once per
// expired session row deleted.
var SessionsReapedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "sessions_reaped_total",
		Help: "Total number of expired sessions deleted by the reaper job.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
