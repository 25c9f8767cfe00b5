package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	"github.com/glowtrack/glowtrack-api/internal/repository"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

// AchievementService tracks per-user milestone progress against the fixed
// catalog. Unlocks are monotonic: once an achievement unlocks, its UnlockedAt
// timestamp never changes and it never re-locks.
type AchievementService struct {
	state  photoStateStore
	logger *zap.Logger

	catalog []models.AchievementType
	byID    map[string]models.AchievementType

	mu       sync.RWMutex
	progress map[string]map[string]models.UserAchievement

	persistMu sync.Mutex
}

// NewAchievementService constructs the tracker over the default catalog.
func NewAchievementService(state photoStateStore, logger *zap.Logger) *AchievementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := models.DefaultAchievementCatalog()
	byID := make(map[string]models.AchievementType, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	return &AchievementService{
		state:    state,
		logger:   logger,
		catalog:  catalog,
		byID:     byID,
		progress: make(map[string]map[string]models.UserAchievement),
	}
}

// Load restores unlock state from durable storage. An empty store is valid.
func (s *AchievementService) Load(ctx context.Context) error {
	var stored []models.UserAchievement
	if err := s.state.Get(ctx, repository.StateKeyAchievements, &stored); err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "load achievements")
		}
	}

	progress := make(map[string]map[string]models.UserAchievement)
	for _, ua := range stored {
		if _, ok := s.byID[ua.AchievementID]; !ok {
			// Catalog entries may be retired; stale records are dropped.
			continue
		}
		if progress[ua.UserID] == nil {
			progress[ua.UserID] = make(map[string]models.UserAchievement)
		}
		progress[ua.UserID][ua.AchievementID] = ua
	}

	s.mu.Lock()
	s.progress = progress
	s.mu.Unlock()
	return nil
}

// Catalog returns the static achievement definitions.
func (s *AchievementService) Catalog() []models.AchievementType {
	return s.catalog
}

// Status returns the full catalog annotated with the user's progress.
func (s *AchievementService) Status(userID string) []models.AchievementStatus {
	s.mu.RLock()
	userProgress := s.progress[userID]
	result := make([]models.AchievementStatus, 0, len(s.catalog))
	for _, a := range s.catalog {
		status := models.AchievementStatus{AchievementType: a}
		if ua, ok := userProgress[a.ID]; ok {
			status.Progress = ua.Progress
			status.Unlocked = ua.Unlocked()
			status.UnlockedAt = ua.UnlockedAt
		}
		result = append(result, status)
	}
	s.mu.RUnlock()
	return result
}

// Unlocked returns only the achievements the user has unlocked, most recent first.
func (s *AchievementService) Unlocked(userID string) []models.AchievementStatus {
	all := s.Status(userID)
	unlocked := make([]models.AchievementStatus, 0, len(all))
	for _, a := range all {
		if a.Unlocked {
			unlocked = append(unlocked, a)
		}
	}
	sort.Slice(unlocked, func(i, j int) bool {
		return unlocked[i].UnlockedAt.After(*unlocked[j].UnlockedAt)
	})
	return unlocked
}

// UpdateProgress records new progress toward one achievement and unlocks it
// the first time progress reaches the target. It returns the achievements
// newly unlocked by this call.
func (s *AchievementService) UpdateProgress(ctx context.Context, userID, achievementID string, progress int) ([]models.AchievementType, error) {
	def, ok := s.byID[achievementID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown achievement")
	}

	newlyUnlocked := s.apply(userID, def, progress)
	s.persist(ctx)
	return newlyUnlocked, nil
}

// CheckPhotoCount evaluates all count-based achievements against the user's
// current photo total.
func (s *AchievementService) CheckPhotoCount(ctx context.Context, userID string, count int) []models.AchievementType {
	return s.checkMetric(ctx, userID, models.RequirementCount, count)
}

// CheckDailyStreak evaluates streak achievements against the user's current
// consecutive-day streak.
func (s *AchievementService) CheckDailyStreak(ctx context.Context, userID string, streakDays int) []models.AchievementType {
	return s.checkMetric(ctx, userID, models.RequirementStreak, streakDays)
}

// CheckSkinImprovement evaluates improvement achievements against the user's
// overall score delta since their first analysis.
func (s *AchievementService) CheckSkinImprovement(ctx context.Context, userID string, improvement int) []models.AchievementType {
	return s.checkMetric(ctx, userID, models.RequirementImprovement, improvement)
}

func (s *AchievementService) checkMetric(ctx context.Context, userID string, reqType models.RequirementType, value int) []models.AchievementType {
	var unlocked []models.AchievementType
	for _, def := range s.catalog {
		if def.Requirement.Type != reqType {
			continue
		}
		unlocked = append(unlocked, s.apply(userID, def, value)...)
	}
	s.persist(ctx)
	return unlocked
}

// apply updates one achievement's progress under the lock. Progress never
// regresses, unlocking raises it to at least 100, and UnlockedAt is written
// at most once.
func (s *AchievementService) apply(userID string, def models.AchievementType, progress int) []models.AchievementType {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress[userID] == nil {
		s.progress[userID] = make(map[string]models.UserAchievement)
	}
	ua, ok := s.progress[userID][def.ID]
	if !ok {
		ua = models.UserAchievement{UserID: userID, AchievementID: def.ID}
	}

	if ua.Unlocked() {
		if progress > ua.Progress {
			ua.Progress = progress
			s.progress[userID][def.ID] = ua
		}
		return nil
	}

	if progress > ua.Progress {
		ua.Progress = progress
	}

	var newlyUnlocked []models.AchievementType
	if ua.Progress >= def.Requirement.Target {
		if ua.Progress < 100 {
			ua.Progress = 100
		}
		now := time.Now().UTC()
		ua.UnlockedAt = &now
		newlyUnlocked = append(newlyUnlocked, def)
		s.logger.Info("achievement unlocked",
			zap.String("user_id", userID),
			zap.String("achievement_id", def.ID))
	}
	s.progress[userID][def.ID] = ua
	return newlyUnlocked
}

// persist writes the flattened progress set through to durable storage.
// Failures are logged; in-memory unlock state is retained.
func (s *AchievementService) persist(ctx context.Context) {
	// persistMu holds snapshot and write together so an older snapshot can
	// never land after a newer one.
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	snapshot := make([]models.UserAchievement, 0)
	for _, userProgress := range s.progress {
		for _, ua := range userProgress {
			snapshot = append(snapshot, ua)
		}
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].UserID != snapshot[j].UserID {
			return snapshot[i].UserID < snapshot[j].UserID
		}
		return snapshot[i].AchievementID < snapshot[j].AchievementID
	})

	if err := s.state.Set(ctx, repository.StateKeyAchievements, snapshot); err != nil {
		s.logger.Error("failed to persist achievements", zap.Error(err))
	}
}
