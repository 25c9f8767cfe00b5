package service

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

type photoSaver interface {
	SavePhoto(ctx context.Context, src io.Reader, userID string) (*models.Photo, error)
	DeletePhoto(photo *models.Photo) error
	WithinLimit() (bool, error)
}

// CaptureService runs the capture pipeline: storage admission, artifact
// generation, record registration and achievement evaluation. At most one
// capture per user runs at a time; concurrent attempts are rejected rather
// than queued.
type CaptureService struct {
	files        photoSaver
	photos       *PhotoService
	achievements *AchievementService
	metrics      *MetricsService
	logger       *zap.Logger
	timeout      time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCaptureService constructs the capture pipeline.
func NewCaptureService(files photoSaver, photos *PhotoService, achievements *AchievementService, metrics *MetricsService, logger *zap.Logger, timeout time.Duration) *CaptureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CaptureService{
		files:        files,
		photos:       photos,
		achievements: achievements,
		metrics:      metrics,
		logger:       logger,
		timeout:      timeout,
		inFlight:     make(map[string]struct{}),
	}
}

// CaptureResult is the outcome of a successful capture.
type CaptureResult struct {
	Photo                models.Photo             `json:"photo"`
	UnlockedAchievements []models.AchievementType `json:"unlocked_achievements,omitempty"`
}

// Capture ingests one photo for the user. The upload is rejected up front
// when the storage budget is exhausted, and every artifact written before a
// mid-pipeline failure is rolled back by the file manager.
func (s *CaptureService) Capture(ctx context.Context, userID string, src io.Reader) (*CaptureResult, error) {
	if !s.acquire(userID) {
		return nil, appErrors.ErrCaptureInFlight
	}
	defer s.release(userID)

	start := time.Now()
	result, err := s.capture(ctx, userID, src)
	if s.metrics != nil {
		s.metrics.ObserveCapture(err == nil, time.Since(start))
	}
	return result, err
}

func (s *CaptureService) capture(ctx context.Context, userID string, src io.Reader) (*CaptureResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.files.WithinLimit()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.ErrStorageFull
	}

	photo, err := s.files.SavePhoto(ctx, src, userID)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, appErrors.ErrCaptureTimeout
		}
		return nil, err
	}

	if err := s.photos.Add(ctx, *photo); err != nil {
		// Registration failed after artifacts landed on disk; remove them
		// so the pipeline stays all-or-nothing.
		if delErr := s.files.DeletePhoto(photo); delErr != nil {
			s.logger.Error("failed to roll back artifacts after registration failure",
				zap.String("photo_id", photo.ID), zap.Error(delErr))
		}
		return nil, err
	}

	unlocked := s.evaluateAchievements(ctx, userID)

	if s.metrics != nil {
		s.metrics.SetStorageUsage(s.photos.TotalStorageUsed(), s.photos.Stats().FileCount)
	}

	s.logger.Info("photo captured",
		zap.String("photo_id", photo.ID),
		zap.String("user_id", userID),
		zap.String("light_quality", string(photo.LightQuality)),
		zap.Int64("file_size", photo.Metadata.FileSizeBytes))

	return &CaptureResult{Photo: *photo, UnlockedAchievements: unlocked}, nil
}

// evaluateAchievements runs the count and streak checks after a capture.
// Achievement evaluation never fails a capture.
func (s *CaptureService) evaluateAchievements(ctx context.Context, userID string) []models.AchievementType {
	if s.achievements == nil {
		return nil
	}
	count := s.photos.Count(userID)
	streak := s.photos.StreakDays(userID, time.Now())

	unlocked := s.achievements.CheckPhotoCount(ctx, userID, count)
	unlocked = append(unlocked, s.achievements.CheckDailyStreak(ctx, userID, streak)...)
	return unlocked
}

func (s *CaptureService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *CaptureService) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}
