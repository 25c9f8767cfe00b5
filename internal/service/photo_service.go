package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	"github.com/glowtrack/glowtrack-api/internal/repository"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

const (
	cachePatternPhotos = "photos:*"
	cacheKeyStats      = "photos:stats"
	cacheKeyRecent     = "photos:recent:"
)

type photoStateStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

type artifactDeleter interface {
	DeletePhoto(photo *models.Photo) error
}

// PhotoService is the durable, queryable collection of photo records for the
// current session. State lives in memory and is written through to the state
// repository on every mutation; a failed durable write is logged and the
// in-memory state retained (optimistic local-first consistency).
type PhotoService struct {
	state  photoStateStore
	files  artifactDeleter
	cache  *CacheService
	logger *zap.Logger

	maxStorageMB int64

	mu               sync.RWMutex
	photos           map[string]models.Photo
	totalStorageUsed int64
	ready            bool

	persistMu sync.Mutex
}

// NewPhotoService constructs the photo store. files may be nil when artifact
// deletion is handled elsewhere.
func NewPhotoService(state photoStateStore, files artifactDeleter, cache *CacheService, logger *zap.Logger, maxStorageMB int64) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxStorageMB <= 0 {
		maxStorageMB = 500
	}
	return &PhotoService{
		state:        state,
		files:        files,
		cache:        cache,
		logger:       logger,
		maxStorageMB: maxStorageMB,
		photos:       make(map[string]models.Photo),
	}
}

// Load deserializes the photo collection and the aggregate counter from
// durable storage. The store stays in the loading state until this succeeds.
func (s *PhotoService) Load(ctx context.Context) error {
	var stored []models.Photo
	if err := s.state.Get(ctx, repository.StateKeyPhotos, &stored); err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "load photo collection")
		}
	}

	var storedUsed int64
	if err := s.state.Get(ctx, repository.StateKeyStorageUsed, &storedUsed); err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "load storage counter")
		}
	}

	photos := make(map[string]models.Photo, len(stored))
	var recomputed int64
	for _, photo := range stored {
		photos[photo.ID] = photo
		recomputed += photo.Metadata.FileSizeBytes
	}

	// The aggregate is recomputable from the full record set; prefer the
	// recomputed value when the persisted counter has drifted.
	if storedUsed != recomputed {
		s.logger.Warn("storage counter drifted from record set, recomputing",
			zap.Int64("stored", storedUsed),
			zap.Int64("recomputed", recomputed))
	}

	s.mu.Lock()
	s.photos = photos
	s.totalStorageUsed = recomputed
	s.ready = true
	s.mu.Unlock()

	s.logger.Info("photo store loaded",
		zap.Int("photos", len(photos)),
		zap.Int64("total_storage_used", recomputed))
	return nil
}

// Ready reports whether the store has finished loading.
func (s *PhotoService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Add inserts or overwrites a photo by id, adjusts the aggregate counter and
// writes both blobs through to durable storage.
func (s *PhotoService) Add(ctx context.Context, photo models.Photo) error {
	if photo.ID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "photo id is required")
	}

	s.mu.Lock()
	if prev, ok := s.photos[photo.ID]; ok {
		s.totalStorageUsed -= prev.Metadata.FileSizeBytes
	}
	s.photos[photo.ID] = photo
	s.totalStorageUsed += photo.Metadata.FileSizeBytes
	s.mu.Unlock()

	s.persist(ctx)
	s.invalidate(ctx)
	return nil
}

// Delete removes a photo by id if present, deleting its backing artifacts and
// decrementing the aggregate. Deleting an absent id is a no-op.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	photo, ok := s.photos[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.photos, id)
	s.totalStorageUsed -= photo.Metadata.FileSizeBytes
	s.mu.Unlock()

	if s.files != nil {
		if err := s.files.DeletePhoto(&photo); err != nil {
			// Artifact removal failures never block the logical deletion.
			s.logger.Warn("failed to delete photo artifacts", zap.String("photo_id", id), zap.Error(err))
		}
	}

	s.persist(ctx)
	s.invalidate(ctx)
	return nil
}

// Update merges the provided fields into an existing photo. TakenAt is
// immutable and not part of the update surface. Absent ids are a no-op.
func (s *PhotoService) Update(ctx context.Context, id string, update models.PhotoUpdate) error {
	s.mu.Lock()
	photo, ok := s.photos[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if update.URI != nil {
		photo.URI = *update.URI
	}
	if update.LightQuality != nil {
		photo.LightQuality = *update.LightQuality
	}
	if update.FaceDetected != nil {
		photo.FaceDetected = *update.FaceDetected
	}
	if update.AnalysisID != nil {
		photo.AnalysisID = update.AnalysisID
	}
	s.photos[id] = photo
	s.mu.Unlock()

	s.persist(ctx)
	s.invalidate(ctx)
	return nil
}

// Get returns the photo stored under id.
func (s *PhotoService) Get(id string) (models.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	return photo, ok
}

// Count returns the number of photos held by the given user.
func (s *PhotoService) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, photo := range s.photos {
		if photo.UserID == userID {
			count++
		}
	}
	return count
}

// ByDateRange returns photos taken within [start, end], most recent first.
func (s *PhotoService) ByDateRange(userID string, start, end time.Time) []models.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Photo, 0)
	for _, photo := range s.photos {
		if userID != "" && photo.UserID != userID {
			continue
		}
		if photo.TakenAt.Before(start) || photo.TakenAt.After(end) {
			continue
		}
		result = append(result, photo)
	}
	sortByTakenAtDesc(result)
	return result
}

// ByDate returns the photos taken on the given calendar day, local time,
// most recent first.
func (s *PhotoService) ByDate(userID string, date time.Time) []models.Photo {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Photo, 0)
	for _, photo := range s.photos {
		if userID != "" && photo.UserID != userID {
			continue
		}
		taken := photo.TakenAt.In(date.Location())
		if taken.Before(dayStart) || !taken.Before(dayEnd) {
			continue
		}
		result = append(result, photo)
	}
	sortByTakenAtDesc(result)
	return result
}

// Recent returns the limit most recent photos by capture time.
func (s *PhotoService) Recent(userID string, limit int) []models.Photo {
	s.mu.RLock()
	result := make([]models.Photo, 0, len(s.photos))
	for _, photo := range s.photos {
		if userID != "" && photo.UserID != userID {
			continue
		}
		result = append(result, photo)
	}
	s.mu.RUnlock()

	sortByTakenAtDesc(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// StreakDays returns the number of consecutive calendar days ending today on
// which the user captured at least one photo.
func (s *PhotoService) StreakDays(userID string, now time.Time) int {
	s.mu.RLock()
	days := make(map[string]struct{})
	for _, photo := range s.photos {
		if photo.UserID != userID {
			continue
		}
		days[photo.TakenAt.In(now.Location()).Format("2006-01-02")] = struct{}{}
	}
	s.mu.RUnlock()

	streak := 0
	for day := now; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
	}
	return streak
}

// CleanupOld removes all photos whose capture time predates the age cutoff,
// deleting their artifacts and returning the bytes freed.
func (s *PhotoService) CleanupOld(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	var freed int64
	expired := make([]models.Photo, 0)
	for id, photo := range s.photos {
		if photo.TakenAt.Before(cutoff) {
			expired = append(expired, photo)
			freed += photo.Metadata.FileSizeBytes
			delete(s.photos, id)
		}
	}
	s.totalStorageUsed -= freed
	s.mu.Unlock()

	if len(expired) == 0 {
		return 0, nil
	}

	if s.files != nil {
		for i := range expired {
			if err := s.files.DeletePhoto(&expired[i]); err != nil {
				s.logger.Warn("cleanup failed to delete artifacts",
					zap.String("photo_id", expired[i].ID), zap.Error(err))
			}
		}
	}

	s.persist(ctx)
	s.invalidate(ctx)

	s.logger.Info("photo store cleanup completed",
		zap.Int("photos_removed", len(expired)),
		zap.Int64("bytes_freed", freed))
	return freed, nil
}

// Stats returns the derived storage view. RemainingMB is not clamped and may
// go negative when over budget.
func (s *PhotoService) Stats() models.StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalMB := float64(s.totalStorageUsed) / (1024 * 1024)
	count := len(s.photos)
	avg := 0.0
	if count > 0 {
		avg = totalMB / float64(count)
	}
	return models.StorageStats{
		TotalSizeMB:   totalMB,
		FileCount:     count,
		AverageSizeMB: avg,
		RemainingMB:   float64(s.maxStorageMB) - totalMB,
	}
}

// CachedStats serves Stats through the read-side cache. On a miss the stats
// are computed and written back under a key covered by the mutation
// invalidation pattern.
func (s *PhotoService) CachedStats(ctx context.Context) models.StorageStats {
	var stats models.StorageStats
	if hit, err := s.cache.Get(ctx, cacheKeyStats, &stats); err == nil && hit {
		return stats
	}
	stats = s.Stats()
	_ = s.cache.Set(ctx, cacheKeyStats, stats, 0)
	return stats
}

// CachedRecent serves Recent through the read-side cache, keyed per user and
// limit.
func (s *PhotoService) CachedRecent(ctx context.Context, userID string, limit int) []models.Photo {
	key := fmt.Sprintf("%s%s:%d", cacheKeyRecent, userID, limit)
	var photos []models.Photo
	if hit, err := s.cache.Get(ctx, key, &photos); err == nil && hit {
		return photos
	}
	photos = s.Recent(userID, limit)
	_ = s.cache.Set(ctx, key, photos, 0)
	return photos
}

// TotalStorageUsed exposes the aggregate byte counter.
func (s *PhotoService) TotalStorageUsed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalStorageUsed
}

// persist writes both state blobs through to durable storage. Failures are
// logged and the in-memory state retained; the tracking data is non-critical
// and divergence heals on the next successful write.
func (s *PhotoService) persist(ctx context.Context) {
	// persistMu holds snapshot and write together so an older snapshot can
	// never land after a newer one.
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	snapshot := make([]models.Photo, 0, len(s.photos))
	for _, photo := range s.photos {
		snapshot = append(snapshot, photo)
	}
	used := s.totalStorageUsed
	s.mu.RUnlock()

	sortByTakenAtDesc(snapshot)

	if err := s.state.Set(ctx, repository.StateKeyPhotos, snapshot); err != nil {
		s.logger.Error("failed to persist photo collection", zap.Error(err))
		return
	}
	if err := s.state.Set(ctx, repository.StateKeyStorageUsed, used); err != nil {
		s.logger.Error("failed to persist storage counter", zap.Error(err))
	}
}

func (s *PhotoService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cachePatternPhotos); err != nil {
		s.logger.Warn("failed to invalidate photo cache", zap.Error(err))
	}
}

func sortByTakenAtDesc(photos []models.Photo) {
	sort.Slice(photos, func(i, j int) bool {
		return photos[i].TakenAt.After(photos[j].TakenAt)
	})
}
