package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	captureDuration prometheus.Observer
	captureTotal    *prometheus.CounterVec
	cleanupFreed    prometheus.Counter
	storageUsed     prometheus.Gauge
	photoCount      prometheus.Gauge
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	captureCount         uint64
	captureFailCount     uint64
	captureDurationTotal uint64

	storageUsedBytes int64
	photoCountValue  int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	captureDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "photo_capture_duration_seconds",
		Help:    "Duration of the full photo capture pipeline",
		Buckets: prometheus.DefBuckets,
	})

	captureTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_captures_total",
		Help: "Total photo capture attempts by result",
	}, []string{"result"})

	cleanupFreed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photo_cleanup_freed_bytes_total",
		Help: "Total bytes reclaimed by cleanup runs",
	})

	storageUsed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "photo_storage_used_bytes",
		Help: "Aggregate bytes tracked for stored photos",
	})

	photoCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "photo_count",
		Help: "Number of photos currently tracked",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, captureDuration, captureTotal, cleanupFreed, storageUsed, photoCount, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		captureDuration: captureDuration,
		captureTotal:    captureTotal,
		cleanupFreed:    cleanupFreed,
		storageUsed:     storageUsed,
		photoCount:      photoCount,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveCapture records a capture pipeline attempt.
func (m *MetricsService) ObserveCapture(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
		atomic.AddUint64(&m.captureFailCount, 1)
	}
	m.captureTotal.WithLabelValues(result).Inc()
	m.captureDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.captureCount, 1)
	atomic.AddUint64(&m.captureDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveCleanup records bytes reclaimed by a cleanup run.
func (m *MetricsService) ObserveCleanup(bytesFreed int64) {
	if m == nil || bytesFreed <= 0 {
		return
	}
	m.cleanupFreed.Add(float64(bytesFreed))
}

// SetStorageUsage updates the storage gauges from the photo store.
func (m *MetricsService) SetStorageUsage(usedBytes int64, photos int) {
	if m == nil {
		return
	}
	m.storageUsed.Set(float64(usedBytes))
	m.photoCount.Set(float64(photos))
	atomic.StoreInt64(&m.storageUsedBytes, usedBytes)
	atomic.StoreInt64(&m.photoCountValue, int64(photos))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for dashboard endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	captures := atomic.LoadUint64(&m.captureCount)
	captureFails := atomic.LoadUint64(&m.captureFailCount)
	captureDuration := atomic.LoadUint64(&m.captureDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgCaptureMs float64
	if captures > 0 {
		avgCaptureMs = float64(captureDuration) / float64(captures) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CapturesTotal:            captures,
		CaptureFailures:          captureFails,
		AverageCaptureDurationMs: avgCaptureMs,
		StorageUsedBytes:         atomic.LoadInt64(&m.storageUsedBytes),
		PhotoCount:               int(atomic.LoadInt64(&m.photoCountValue)),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
