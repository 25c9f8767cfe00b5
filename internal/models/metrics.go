package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed alongside the
// Prometheus endpoint for dashboard consumption.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CapturesTotal            uint64    `json:"captures_total"`
	CaptureFailures          uint64    `json:"capture_failures"`
	AverageCaptureDurationMs float64   `json:"average_capture_duration_ms"`
	StorageUsedBytes         int64     `json:"storage_used_bytes"`
	PhotoCount               int       `json:"photo_count"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
