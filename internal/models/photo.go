package models

import "time"

// LightQuality is the capture-time ambient light assessment.
type LightQuality string

const (
	LightQualityPoor      LightQuality = "poor"
	LightQualityGood      LightQuality = "good"
	LightQualityExcellent LightQuality = "excellent"
)

// ImageFormat identifies the encoding of a stored artifact.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// ArtifactQuality selects one of the three resolution variants of a photo.
type ArtifactQuality string

const (
	ArtifactOriginal   ArtifactQuality = "original"
	ArtifactCompressed ArtifactQuality = "compressed"
	ArtifactThumbnail  ArtifactQuality = "thumbnail"
)

// PhotoPaths holds the three artifact file paths owned by one photo.
// Paths are never shared between photos.
type PhotoPaths struct {
	Original   string `json:"original"`
	Compressed string `json:"compressed"`
	Thumbnail  string `json:"thumbnail"`
}

// ForQuality returns the path for the requested artifact variant.
func (p PhotoPaths) ForQuality(q ArtifactQuality) string {
	switch q {
	case ArtifactOriginal:
		return p.Original
	case ArtifactThumbnail:
		return p.Thumbnail
	default:
		return p.Compressed
	}
}

// All returns the three paths in original/compressed/thumbnail order.
func (p PhotoPaths) All() []string {
	return []string{p.Original, p.Compressed, p.Thumbnail}
}

// PhotoMetadata captures sizing facts measured from the produced artifacts.
type PhotoMetadata struct {
	FileSizeBytes    int64       `json:"file_size_bytes"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Format           ImageFormat `json:"format"`
	CompressionRatio float64     `json:"compression_ratio"`
}

// Photo is the persisted representation of one capture and its derived
// artifacts. Immutable after capture except for the AnalysisID backfill.
type Photo struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	URI          string        `json:"uri"`
	TakenAt      time.Time     `json:"taken_at"`
	LightQuality LightQuality  `json:"light_quality"`
	FaceDetected bool          `json:"face_detected"`
	AnalysisID   *string       `json:"analysis_id,omitempty"`
	Paths        PhotoPaths    `json:"paths"`
	Metadata     PhotoMetadata `json:"metadata"`
}

// PhotoUpdate carries the fields callers may merge into an existing photo.
// TakenAt is immutable once set and therefore not represented here.
type PhotoUpdate struct {
	URI          *string       `json:"uri,omitempty"`
	LightQuality *LightQuality `json:"light_quality,omitempty"`
	FaceDetected *bool         `json:"face_detected,omitempty"`
	AnalysisID   *string       `json:"analysis_id,omitempty"`
}

// StorageStats is the store-side derived view of storage usage.
// RemainingMB may go negative when over budget; callers must handle it.
type StorageStats struct {
	TotalSizeMB   float64 `json:"total_size_mb"`
	FileCount     int     `json:"file_count"`
	AverageSizeMB float64 `json:"average_size_mb"`
	RemainingMB   float64 `json:"remaining_mb"`
}

// StorageInfo is the disk-side ground truth measured from original artifacts.
type StorageInfo struct {
	TotalUsedBytes int64 `json:"total_used_bytes"`
	AvailableBytes int64 `json:"available_bytes"`
	PhotoCount     int   `json:"photo_count"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
