package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/pkg/jobs"
)

type artifactSweeper interface {
	CleanupOlderThan(age time.Duration) (int64, error)
}

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	BytesFreed    int64     `json:"bytes_freed"`
	OrphanedBytes int64     `json:"orphaned_bytes"`
	CompletedAt   time.Time `json:"completed_at"`
}

// CleanupService applies a single age policy to both the photo records and
// the artifacts on disk. Scheduled runs go through a retrying job queue; the
// same handler backs on-demand runs.
type CleanupService struct {
	photos  *PhotoService
	files   artifactSweeper
	metrics *MetricsService
	logger  *zap.Logger

	age      time.Duration
	interval time.Duration

	queue  *jobs.Queue
	cancel context.CancelFunc
}

// NewCleanupService constructs the cleanup scheduler.
func NewCleanupService(photos *PhotoService, files artifactSweeper, metrics *MetricsService, logger *zap.Logger, age, interval time.Duration, workers, retries int) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if age <= 0 {
		age = 6 * 30 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	s := &CleanupService{
		photos:   photos,
		files:    files,
		metrics:  metrics,
		logger:   logger,
		age:      age,
		interval: interval,
	}
	s.queue = jobs.NewQueue("photo-cleanup", s.handle, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers and the periodic scheduler.
func (s *CleanupService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.enqueue(); err != nil {
					s.logger.Warn("failed to schedule cleanup run", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the scheduler and drains workers.
func (s *CleanupService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

// RunNow executes a cleanup pass immediately, outside the queue.
func (s *CleanupService) RunNow(ctx context.Context) (*CleanupResult, error) {
	return s.run(ctx)
}

func (s *CleanupService) enqueue() error {
	return s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "photo_cleanup",
	})
}

func (s *CleanupService) handle(ctx context.Context, _ jobs.Job) error {
	_, err := s.run(ctx)
	return err
}

// run removes aged photo records with their artifacts, then sweeps the
// storage directories for orphans past the same cutoff.
func (s *CleanupService) run(ctx context.Context) (*CleanupResult, error) {
	freed, err := s.photos.CleanupOld(ctx, s.age)
	if err != nil {
		return nil, err
	}

	var orphaned int64
	if s.files != nil {
		orphaned, err = s.files.CleanupOlderThan(s.age)
		if err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveCleanup(freed + orphaned)
		s.metrics.SetStorageUsage(s.photos.TotalStorageUsed(), s.photos.Stats().FileCount)
	}

	s.logger.Info("cleanup run finished",
		zap.Int64("bytes_freed", freed),
		zap.Int64("orphaned_bytes", orphaned))

	return &CleanupResult{
		BytesFreed:    freed,
		OrphanedBytes: orphaned,
		CompletedAt:   time.Now().UTC(),
	}, nil
}
