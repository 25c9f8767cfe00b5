package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

// AnalysisRepository abstracts persistence for analysis reports.
type AnalysisRepository interface {
	Create(ctx context.Context, report *models.AnalysisReport) error
	GetByID(ctx context.Context, id string) (*models.AnalysisReport, error)
	LatestByUser(ctx context.Context, userID string) (*models.AnalysisReport, error)
	ListByPhoto(ctx context.Context, photoID string) ([]models.AnalysisReport, error)
}

// AnalysisService produces skin analysis reports for captured photos. Scores
// are synthesized around fixed baselines until a real analysis backend is
// plugged in; everything downstream (deltas, insights, achievements) treats
// them as authoritative.
type AnalysisService struct {
	repo         AnalysisRepository
	photos       *PhotoService
	achievements *AchievementService
	logger       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalysisService constructs the analyzer.
func NewAnalysisService(repo AnalysisRepository, photos *PhotoService, achievements *AchievementService, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		repo:         repo,
		photos:       photos,
		achievements: achievements,
		logger:       logger,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Analyze generates a report for the photo, persists it, links it back onto
// the photo record and evaluates improvement achievements.
func (s *AnalysisService) Analyze(ctx context.Context, userID, photoID string) (*models.AnalysisReport, error) {
	photo, ok := s.photos.Get(photoID)
	if !ok || photo.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}

	previous, err := s.repo.LatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	scores := s.generateScores()

	report := &models.AnalysisReport{
		ID:             uuid.NewString(),
		PhotoID:        photoID,
		UserID:         userID,
		CreatedAt:      time.Now().UTC(),
		Scores:         scores,
		Insights:       buildInsights(scores, photo),
		DetectedIssues: detectIssues(scores),
	}
	if previous != nil {
		report.ComparisonWithLast = diffScores(scores, previous.Scores)
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	analysisID := report.ID
	if err := s.photos.Update(ctx, photoID, models.PhotoUpdate{AnalysisID: &analysisID}); err != nil {
		s.logger.Warn("failed to link analysis to photo",
			zap.String("photo_id", photoID), zap.Error(err))
	}

	if s.achievements != nil && previous != nil {
		improvement := scores.Overall - previous.Scores.Overall
		if improvement > 0 {
			s.achievements.CheckSkinImprovement(ctx, userID, improvement)
		}
	}

	return report, nil
}

// Get returns a single report by id, scoped to the user.
func (s *AnalysisService) Get(ctx context.Context, userID, id string) (*models.AnalysisReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
		}
		return nil, err
	}
	if report.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis not found")
	}
	return report, nil
}

// Latest returns the user's most recent report, or a not-found error.
func (s *AnalysisService) Latest(ctx context.Context, userID string) (*models.AnalysisReport, error) {
	report, err := s.repo.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no analyses yet")
		}
		return nil, err
	}
	return report, nil
}

// ByPhoto lists reports for one photo, scoped to the user.
func (s *AnalysisService) ByPhoto(ctx context.Context, userID, photoID string) ([]models.AnalysisReport, error) {
	photo, ok := s.photos.Get(photoID)
	if !ok || photo.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	return s.repo.ListByPhoto(ctx, photoID)
}

// generateScores samples each sub-score around its baseline within [0,100].
func (s *AnalysisService) generateScores() models.AnalysisScores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AnalysisScores{
		Overall:    s.jitter(75, 15),
		Hydration:  s.jitter(70, 20),
		Elasticity: s.jitter(80, 12),
		Pores:      s.jitter(65, 20),
		Texture:    s.jitter(72, 18),
		Radiance:   s.jitter(78, 15),
	}
}

func (s *AnalysisService) jitter(base, spread int) int {
	v := base + s.rng.Intn(2*spread+1) - spread
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func diffScores(current, previous models.AnalysisScores) models.AnalysisScores {
	return models.AnalysisScores{
		Overall:    current.Overall - previous.Overall,
		Hydration:  current.Hydration - previous.Hydration,
		Elasticity: current.Elasticity - previous.Elasticity,
		Pores:      current.Pores - previous.Pores,
		Texture:    current.Texture - previous.Texture,
		Radiance:   current.Radiance - previous.Radiance,
	}
}

func buildInsights(scores models.AnalysisScores, photo models.Photo) []models.AnalysisInsight {
	insights := make([]models.AnalysisInsight, 0, 3)

	if scores.Hydration < 60 {
		insights = append(insights, models.AnalysisInsight{
			Category:    "hydration",
			Title:       "Hydration running low",
			Description: "Your skin is showing signs of dehydration.",
			Severity:    models.SeverityWarning,
			Recommendations: []string{
				"Use a hyaluronic acid serum morning and night",
				"Drink more water throughout the day",
			},
		})
	} else {
		insights = append(insights, models.AnalysisInsight{
			Category:    "hydration",
			Title:       "Hydration on track",
			Description: "Moisture levels look healthy.",
			Severity:    models.SeveritySuccess,
			Recommendations: []string{
				"Keep up your current moisturizing routine",
			},
		})
	}

	if scores.Pores < 60 {
		insights = append(insights, models.AnalysisInsight{
			Category:    "pores",
			Title:       "Pores appear enlarged",
			Description: "Pore visibility is above your usual range.",
			Severity:    models.SeverityWarning,
			Recommendations: []string{
				"Introduce a BHA exfoliant twice a week",
				"Avoid heavy occlusive products in the T-zone",
			},
		})
	}

	if photo.LightQuality == models.LightQualityPoor {
		insights = append(insights, models.AnalysisInsight{
			Category:    "capture",
			Title:       "Low light affects accuracy",
			Description: "This photo was taken in poor lighting, which reduces analysis confidence.",
			Severity:    models.SeverityInfo,
			Recommendations: []string{
				"Retake near a window with natural daylight",
			},
		})
	}

	return insights
}

func detectIssues(scores models.AnalysisScores) []models.DetectedIssue {
	issues := make([]models.DetectedIssue, 0, 2)
	if scores.Texture < 55 {
		issues = append(issues, models.DetectedIssue{
			Type:       "uneven_texture",
			Severity:   models.IssueMedium,
			Location:   "cheeks",
			Confidence: 0.78,
		})
	}
	if scores.Radiance < 55 {
		issues = append(issues, models.DetectedIssue{
			Type:       "dullness",
			Severity:   models.IssueLow,
			Location:   "forehead",
			Confidence: 0.71,
		})
	}
	return issues
}
