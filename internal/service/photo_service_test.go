package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
	"github.com/glowtrack/glowtrack-api/internal/repository"
)

type stateStoreStub struct {
	mu     sync.Mutex
	values map[string][]byte
	setErr error
}

func newStateStoreStub() *stateStoreStub {
	return &stateStoreStub{values: make(map[string][]byte)}
}

func (s *stateStoreStub) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return repository.ErrStateNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (s *stateStoreStub) Set(_ context.Context, key string, value interface{}) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

type fileDeleterStub struct {
	deleted []string
	err     error
}

func (f *fileDeleterStub) DeletePhoto(photo *models.Photo) error {
	f.deleted = append(f.deleted, photo.ID)
	return f.err
}

func makePhoto(id, userID string, takenAt time.Time, size int64) models.Photo {
	return models.Photo{
		ID:      id,
		UserID:  userID,
		TakenAt: takenAt,
		Metadata: models.PhotoMetadata{
			FileSizeBytes: size,
			Width:         1920,
			Height:        1080,
			Format:        models.FormatJPEG,
		},
	}
}

func newTestPhotoService(state photoStateStore, files artifactDeleter) *PhotoService {
	return NewPhotoService(state, files, nil, nil, 500)
}

func TestPhotoServiceAggregateMatchesRecords(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, svc.Add(ctx, makePhoto("a", "u1", now, 100)))
	require.NoError(t, svc.Add(ctx, makePhoto("b", "u1", now, 250)))
	require.NoError(t, svc.Add(ctx, makePhoto("c", "u1", now, 50)))
	require.NoError(t, svc.Delete(ctx, "b"))

	assert.Equal(t, int64(150), svc.TotalStorageUsed())
	assert.Equal(t, 2, svc.Stats().FileCount)
}

func TestPhotoServiceOverwriteAdjustsAggregate(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, svc.Add(ctx, makePhoto("a", "u1", now, 100)))
	require.NoError(t, svc.Add(ctx, makePhoto("a", "u1", now, 300)))

	assert.Equal(t, int64(300), svc.TotalStorageUsed())
	assert.Equal(t, 1, svc.Stats().FileCount)
}

func TestPhotoServiceDeleteAbsentIsNoOp(t *testing.T) {
	files := &fileDeleterStub{}
	svc := newTestPhotoService(newStateStoreStub(), files)

	require.NoError(t, svc.Delete(context.Background(), "missing"))
	assert.Empty(t, files.deleted)
	assert.Equal(t, int64(0), svc.TotalStorageUsed())
}

func TestPhotoServiceDeleteRemovesArtifacts(t *testing.T) {
	files := &fileDeleterStub{}
	svc := newTestPhotoService(newStateStoreStub(), files)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, makePhoto("a", "u1", time.Now(), 100)))
	require.NoError(t, svc.Delete(ctx, "a"))

	assert.Equal(t, []string{"a"}, files.deleted)
	_, found := svc.Get("a")
	assert.False(t, found)
}

func TestPhotoServiceDeleteSurvivesArtifactFailure(t *testing.T) {
	files := &fileDeleterStub{err: errors.New("disk gone")}
	svc := newTestPhotoService(newStateStoreStub(), files)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, makePhoto("a", "u1", time.Now(), 100)))
	require.NoError(t, svc.Delete(ctx, "a"))

	_, found := svc.Get("a")
	assert.False(t, found)
	assert.Equal(t, int64(0), svc.TotalStorageUsed())
}

func TestPhotoServiceRoundTripThroughState(t *testing.T) {
	state := newStateStoreStub()
	ctx := context.Background()
	taken := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	first := newTestPhotoService(state, nil)
	require.NoError(t, first.Add(ctx, makePhoto("a", "u1", taken, 2048)))

	second := newTestPhotoService(state, nil)
	require.NoError(t, second.Load(ctx))

	photo, found := second.Get("a")
	require.True(t, found)
	assert.True(t, photo.TakenAt.Equal(taken))
	assert.Equal(t, int64(2048), second.TotalStorageUsed())
	assert.True(t, second.Ready())
}

func TestPhotoServiceLoadRecomputesDriftedCounter(t *testing.T) {
	state := newStateStoreStub()
	ctx := context.Background()

	photos := []models.Photo{makePhoto("a", "u1", time.Now(), 500), makePhoto("b", "u1", time.Now(), 300)}
	require.NoError(t, state.Set(ctx, repository.StateKeyPhotos, photos))
	require.NoError(t, state.Set(ctx, repository.StateKeyStorageUsed, int64(9999)))

	svc := newTestPhotoService(state, nil)
	require.NoError(t, svc.Load(ctx))

	assert.Equal(t, int64(800), svc.TotalStorageUsed())
}

func TestPhotoServiceLoadEmptyStore(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	require.NoError(t, svc.Load(context.Background()))
	assert.True(t, svc.Ready())
	assert.Equal(t, 0, svc.Stats().FileCount)
}

func TestPhotoServicePersistFailureKeepsMemoryState(t *testing.T) {
	state := newStateStoreStub()
	state.setErr = errors.New("db down")
	svc := newTestPhotoService(state, nil)

	require.NoError(t, svc.Add(context.Background(), makePhoto("a", "u1", time.Now(), 128)))

	photo, found := svc.Get("a")
	assert.True(t, found)
	assert.Equal(t, "a", photo.ID)
	assert.Equal(t, int64(128), svc.TotalStorageUsed())
}

func TestPhotoServiceDateQueries(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	ctx := context.Background()

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Add(ctx, makePhoto("morning", "u1", day.Add(8*time.Hour), 10)))
	require.NoError(t, svc.Add(ctx, makePhoto("evening", "u1", day.Add(20*time.Hour), 10)))
	require.NoError(t, svc.Add(ctx, makePhoto("nextday", "u1", day.Add(25*time.Hour), 10)))
	require.NoError(t, svc.Add(ctx, makePhoto("other", "u2", day.Add(9*time.Hour), 10)))

	sameDay := svc.ByDate("u1", day)
	require.Len(t, sameDay, 2)
	assert.Equal(t, "evening", sameDay[0].ID)
	assert.Equal(t, "morning", sameDay[1].ID)

	ranged := svc.ByDateRange("u1", day, day.Add(26*time.Hour))
	require.Len(t, ranged, 3)
	assert.Equal(t, "nextday", ranged[0].ID)

	recent := svc.Recent("u1", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "nextday", recent[0].ID)
	assert.Equal(t, "evening", recent[1].ID)
}

func TestPhotoServiceStreakDays(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Add(ctx, makePhoto(string(rune('a'+i)), "u1", now.AddDate(0, 0, -i), 10)))
	}
	// Gap at day 4 breaks the run.
	require.NoError(t, svc.Add(ctx, makePhoto("old", "u1", now.AddDate(0, 0, -5), 10)))

	assert.Equal(t, 3, svc.StreakDays("u1", now))
	assert.Equal(t, 0, svc.StreakDays("u2", now))
}

func TestPhotoServiceCleanupOldRemovesAged(t *testing.T) {
	files := &fileDeleterStub{}
	svc := newTestPhotoService(newStateStoreStub(), files)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, makePhoto("fresh", "u1", time.Now().Add(-24*time.Hour), 100)))
	require.NoError(t, svc.Add(ctx, makePhoto("stale", "u1", time.Now().Add(-8*30*24*time.Hour), 400)))

	freed, err := svc.CleanupOld(ctx, 6*30*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(400), freed)
	assert.Equal(t, []string{"stale"}, files.deleted)
	_, found := svc.Get("fresh")
	assert.True(t, found)
	assert.Equal(t, int64(100), svc.TotalStorageUsed())
}

func TestPhotoServiceStats(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	require.NoError(t, svc.Add(context.Background(), makePhoto("a", "u1", time.Now(), 1024*1024)))

	stats := svc.Stats()
	assert.InDelta(t, 1.0, stats.TotalSizeMB, 0.001)
	assert.Equal(t, 1, stats.FileCount)
	assert.InDelta(t, 1.0, stats.AverageSizeMB, 0.001)
	assert.InDelta(t, 499.0, stats.RemainingMB, 0.001)
}

func TestPhotoServiceStatsCanGoNegative(t *testing.T) {
	svc := NewPhotoService(newStateStoreStub(), nil, nil, nil, 1)
	require.NoError(t, svc.Add(context.Background(), makePhoto("big", "u1", time.Now(), 3*1024*1024)))

	assert.InDelta(t, -2.0, svc.Stats().RemainingMB, 0.001)
}

func TestPhotoServiceUpdateMergesFields(t *testing.T) {
	svc := newTestPhotoService(newStateStoreStub(), nil)
	ctx := context.Background()
	taken := time.Now()

	photo := makePhoto("a", "u1", taken, 100)
	photo.LightQuality = models.LightQualityPoor
	require.NoError(t, svc.Add(ctx, photo))

	quality := models.LightQualityGood
	analysisID := "analysis-1"
	require.NoError(t, svc.Update(ctx, "a", models.PhotoUpdate{
		LightQuality: &quality,
		AnalysisID:   &analysisID,
	}))

	updated, found := svc.Get("a")
	require.True(t, found)
	assert.Equal(t, models.LightQualityGood, updated.LightQuality)
	require.NotNil(t, updated.AnalysisID)
	assert.Equal(t, "analysis-1", *updated.AnalysisID)
	assert.True(t, updated.TakenAt.Equal(taken))

	// Updating an unknown id is a no-op.
	require.NoError(t, svc.Update(ctx, "ghost", models.PhotoUpdate{LightQuality: &quality}))
}

func TestPhotoServiceCachedStatsReadThrough(t *testing.T) {
	repo := newCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewPhotoService(newStateStoreStub(), nil, cache, nil, 500)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	require.NoError(t, svc.Add(ctx, makePhoto("p1", "u1", time.Now(), 1024*1024)))

	stats := svc.CachedStats(ctx)
	assert.Equal(t, 1, stats.FileCount)

	// The first read populates the cache; tampering with the cached entry
	// proves the second read is served from it.
	repo.mu.Lock()
	raw, ok := repo.entries["photos:stats"]
	repo.mu.Unlock()
	require.True(t, ok)
	var cached models.StorageStats
	require.NoError(t, json.Unmarshal(raw, &cached))
	cached.FileCount = 42
	tampered, err := json.Marshal(cached)
	require.NoError(t, err)
	repo.mu.Lock()
	repo.entries["photos:stats"] = tampered
	repo.mu.Unlock()

	assert.Equal(t, 42, svc.CachedStats(ctx).FileCount)

	// A mutation invalidates photos:* and the next read recomputes.
	require.NoError(t, svc.Add(ctx, makePhoto("p2", "u1", time.Now(), 1024*1024)))
	assert.Equal(t, 2, svc.CachedStats(ctx).FileCount)
}

func TestPhotoServiceCachedRecentInvalidatedOnMutation(t *testing.T) {
	repo := newCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewPhotoService(newStateStoreStub(), nil, cache, nil, 500)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	require.NoError(t, svc.Add(ctx, makePhoto("p1", "u1", time.Now().Add(-time.Hour), 100)))

	listed := svc.CachedRecent(ctx, "u1", 5)
	require.Len(t, listed, 1)

	repo.mu.Lock()
	_, ok := repo.entries["photos:recent:u1:5"]
	repo.mu.Unlock()
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "p1"))
	assert.Empty(t, svc.CachedRecent(ctx, "u1", 5))
}

func TestPhotoServiceConcurrentAddsPersistCompleteSnapshot(t *testing.T) {
	state := newStateStoreStub()
	svc := newTestPhotoService(state, nil)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = svc.Add(ctx, makePhoto(fmt.Sprintf("p%d", i), "u1", time.Now(), 1024))
		}(i)
	}
	wg.Wait()

	// The last durable snapshot to land must reflect every completed
	// mutation, not a stale interleaving.
	var stored []models.Photo
	require.NoError(t, state.Get(ctx, repository.StateKeyPhotos, &stored))
	assert.Len(t, stored, n)

	var used int64
	require.NoError(t, state.Get(ctx, repository.StateKeyStorageUsed, &used))
	assert.Equal(t, int64(n*1024), used)
}
