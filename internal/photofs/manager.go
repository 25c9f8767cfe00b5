package photofs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

const (
	dirOriginal   = "original"
	dirCompressed = "compressed"
	dirThumbnail  = "thumbnail"

	compressedMaxDim  = 1920
	compressedQuality = 85
	thumbnailDim      = 200
	thumbnailQuality  = 70
)

// Manager turns one captured raw image into the three-resolution artifact set
// and manages the disk budget underneath the photo store.
type Manager struct {
	baseDir      string
	maxStorageMB int64
	classifier   LightClassifier
	detector     FaceDetector
	logger       *zap.Logger
}

// NewManager constructs a Manager rooted at baseDir.
func NewManager(baseDir string, maxStorageMB int64, classifier LightClassifier, detector FaceDetector, logger *zap.Logger) *Manager {
	if maxStorageMB <= 0 {
		maxStorageMB = 500
	}
	if classifier == nil {
		classifier = NewLuminanceClassifier()
	}
	if detector == nil {
		detector = &StaticFaceDetector{Present: true}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		baseDir:      baseDir,
		maxStorageMB: maxStorageMB,
		classifier:   classifier,
		detector:     detector,
		logger:       logger,
	}
}

// Init ensures the three artifact directories exist. Safe to call on every
// process start.
func (m *Manager) Init() error {
	for _, sub := range []string{dirOriginal, dirCompressed, dirThumbnail} {
		if err := os.MkdirAll(filepath.Join(m.baseDir, sub), 0o755); err != nil {
			return fmt.Errorf("create artifact directory %s: %w", sub, err)
		}
	}
	return nil
}

// SavePhoto copies the raw image to the original location unmodified, renders
// the compressed and thumbnail variants, and returns the assembled photo
// record. On any failure the artifacts already written are removed before the
// error is returned, so the caller never observes a partial artifact set.
func (m *Manager) SavePhoto(ctx context.Context, src io.Reader, userID string) (*models.Photo, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, "read captured image")
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported image data")
	}
	if format != "jpeg" && format != "png" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported image format %q", format))
	}

	photoID := uuid.NewString()
	takenAt := time.Now()
	base := fmt.Sprintf("%s_%s_%d", userID, photoID, takenAt.UnixMilli())

	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	paths := models.PhotoPaths{
		Original:   filepath.Join(m.baseDir, dirOriginal, base+"_original"+ext),
		Compressed: filepath.Join(m.baseDir, dirCompressed, base+"_compressed.jpg"),
		Thumbnail:  filepath.Join(m.baseDir, dirThumbnail, base+"_thumb.jpg"),
	}

	written := make([]string, 0, 3)
	rollback := func() {
		for _, p := range written {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				m.logger.Warn("rollback failed to remove artifact", zap.String("path", p), zap.Error(err))
			}
		}
	}

	fail := func(stage string, cause error) (*models.Photo, error) {
		rollback()
		return nil, appErrors.Wrap(cause, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, stage)
	}

	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCaptureTimeout.Code, appErrors.ErrCaptureTimeout.Status, appErrors.ErrCaptureTimeout.Message)
	}

	if err := os.WriteFile(paths.Original, raw, 0o644); err != nil {
		return fail("write original artifact", err)
	}
	written = append(written, paths.Original)

	if err := ctx.Err(); err != nil {
		rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrCaptureTimeout.Code, appErrors.ErrCaptureTimeout.Status, appErrors.ErrCaptureTimeout.Message)
	}

	// Bounded resize, aspect preserved ("contain"). Fit never upscales.
	compressed := imaging.Fit(img, compressedMaxDim, compressedMaxDim, imaging.Lanczos)
	if err := imaging.Save(compressed, paths.Compressed, imaging.JPEGQuality(compressedQuality)); err != nil {
		return fail("write compressed artifact", err)
	}
	written = append(written, paths.Compressed)

	if err := ctx.Err(); err != nil {
		rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrCaptureTimeout.Code, appErrors.ErrCaptureTimeout.Status, appErrors.ErrCaptureTimeout.Message)
	}

	// Square crop filling the frame ("cover") for calendar and grid views.
	thumb := imaging.Fill(img, thumbnailDim, thumbnailDim, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, paths.Thumbnail, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return fail("write thumbnail artifact", err)
	}
	written = append(written, paths.Thumbnail)

	originalInfo, err := os.Stat(paths.Original)
	if err != nil {
		return fail("stat original artifact", err)
	}
	compressedInfo, err := os.Stat(paths.Compressed)
	if err != nil {
		return fail("stat compressed artifact", err)
	}

	ratio := 0.0
	if originalInfo.Size() > 0 {
		ratio = float64(compressedInfo.Size()) / float64(originalInfo.Size())
	}

	photo := &models.Photo{
		ID:           photoID,
		UserID:       userID,
		URI:          paths.Compressed,
		TakenAt:      takenAt,
		LightQuality: m.classifier.Classify(img),
		FaceDetected: m.detector.Detect(img),
		Paths:        paths,
		Metadata: models.PhotoMetadata{
			FileSizeBytes:    originalInfo.Size(),
			Width:            compressed.Bounds().Dx(),
			Height:           compressed.Bounds().Dy(),
			Format:           models.ImageFormat(format),
			CompressionRatio: ratio,
		},
	}
	return photo, nil
}

// DeletePhoto removes the three backing files of a photo. Missing files are
// tolerated; other I/O errors are reported but the caller is expected to
// proceed with its logical deletion regardless.
func (m *Manager) DeletePhoto(photo *models.Photo) error {
	var failures []string
	for _, path := range photo.Paths.All() {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
		}
	}
	if len(failures) > 0 {
		return appErrors.Clone(appErrors.ErrStorageDelete, strings.Join(failures, "; "))
	}
	return nil
}

// StorageInfo reports bytes occupied by original artifacts, free disk space,
// and the number of originals on disk. It is the ground truth cross-check
// against the store's in-memory aggregate.
func (m *Manager) StorageInfo() (models.StorageInfo, error) {
	info := models.StorageInfo{}

	entries, err := os.ReadDir(filepath.Join(m.baseDir, dirOriginal))
	if err != nil {
		return info, fmt.Errorf("read original artifacts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		info.TotalUsedBytes += fi.Size()
		info.PhotoCount++
	}

	var st syscall.Statfs_t
	if err := syscall.Statfs(m.baseDir, &st); err == nil {
		info.AvailableBytes = int64(st.Bavail) * int64(st.Bsize)
	}

	return info, nil
}

// CleanupOlderThan deletes artifacts in all three directories whose
// modification time predates the cutoff, returning the bytes freed.
func (m *Manager) CleanupOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	var freed int64
	var removed int

	for _, sub := range []string{dirOriginal, dirCompressed, dirThumbnail} {
		dir := filepath.Join(m.baseDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return freed, fmt.Errorf("read %s artifacts: %w", sub, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			fi, err := entry.Info()
			if err != nil {
				continue
			}
			if fi.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				m.logger.Warn("cleanup failed to remove artifact", zap.String("path", path), zap.Error(err))
				continue
			}
			freed += fi.Size()
			removed++
		}
	}

	m.logger.Info("artifact cleanup completed",
		zap.Int("files_removed", removed),
		zap.Int64("bytes_freed", freed))
	return freed, nil
}

// WithinLimit reports whether the space used by originals is below the
// configured ceiling.
func (m *Manager) WithinLimit() (bool, error) {
	info, err := m.StorageInfo()
	if err != nil {
		return false, err
	}
	usedMB := info.TotalUsedBytes / (1024 * 1024)
	return usedMB < m.maxStorageMB, nil
}

// Rel converts an absolute artifact path into a path relative to the base
// directory, for embedding in signed download tokens.
func (m *Manager) Rel(path string) (string, error) {
	rel, err := filepath.Rel(m.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s outside storage root", path)
	}
	return rel, nil
}

// Abs resolves a token-relative path back under the base directory,
// rejecting traversal outside the storage root.
func (m *Manager) Abs(rel string) (string, error) {
	abs := filepath.Join(m.baseDir, filepath.Clean(rel))
	base, err := filepath.Abs(m.baseDir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.Abs(abs)
	if err != nil {
		return "", err
	}
	if resolved != base && !strings.HasPrefix(resolved, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s outside storage root", rel)
	}
	return resolved, nil
}
