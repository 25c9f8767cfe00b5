package models

import "time"

// RequirementType classifies how achievement progress is measured.
type RequirementType string

const (
	RequirementStreak      RequirementType = "streak"
	RequirementCount       RequirementType = "count"
	RequirementImprovement RequirementType = "improvement"
)

// AchievementCategory groups achievements for presentation.
type AchievementCategory string

const (
	CategoryDaily       AchievementCategory = "daily"
	CategoryMilestone   AchievementCategory = "milestone"
	CategoryImprovement AchievementCategory = "improvement"
)

// Requirement defines the numeric target an achievement tracks toward.
type Requirement struct {
	Type   RequirementType `json:"type"`
	Target int             `json:"target"`
	Metric string          `json:"metric,omitempty"`
}

// AchievementType is a static milestone definition from the catalog.
type AchievementType struct {
	ID          string              `json:"id"`
	Category    AchievementCategory `json:"category"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Requirement Requirement         `json:"requirement"`
}

// UserAchievement tracks one user's progress toward one achievement.
// UnlockedAt is set exactly once, when progress first reaches the target.
type UserAchievement struct {
	UserID        string     `json:"user_id"`
	AchievementID string     `json:"achievement_id"`
	Progress      int        `json:"progress"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
}

// Unlocked reports whether the achievement has been unlocked.
func (a UserAchievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// AchievementStatus pairs a catalog entry with the user's progress for it.
type AchievementStatus struct {
	AchievementType
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// DefaultAchievementCatalog is the fixed set of milestone definitions.
func DefaultAchievementCatalog() []AchievementType {
	return []AchievementType{
		{
			ID:          "first_photo",
			Category:    CategoryMilestone,
			Name:        "First Step",
			Description: "Capture your first photo",
			Icon:        "📸",
			Requirement: Requirement{Type: RequirementCount, Target: 1},
		},
		{
			ID:          "week_streak",
			Category:    CategoryDaily,
			Name:        "One Week Strong",
			Description: "Log photos 7 days in a row",
			Icon:        "🔥",
			Requirement: Requirement{Type: RequirementStreak, Target: 7},
		},
		{
			ID:          "month_streak",
			Category:    CategoryDaily,
			Name:        "Monthly Devotee",
			Description: "Log photos 30 days in a row",
			Icon:        "⭐",
			Requirement: Requirement{Type: RequirementStreak, Target: 30},
		},
		{
			ID:          "skin_improvement_10",
			Category:    CategoryImprovement,
			Name:        "Visible Progress",
			Description: "Improve your skin score by 10 points",
			Icon:        "✨",
			Requirement: Requirement{Type: RequirementImprovement, Target: 10, Metric: "overall_score"},
		},
		{
			ID:          "photo_milestone_10",
			Category:    CategoryMilestone,
			Name:        "Dedicated Tracker",
			Description: "Capture 10 photos",
			Icon:        "🎯",
			Requirement: Requirement{Type: RequirementCount, Target: 10},
		},
		{
			ID:          "photo_milestone_50",
			Category:    CategoryMilestone,
			Name:        "Skincare Expert",
			Description: "Capture 50 photos",
			Icon:        "🏆",
			Requirement: Requirement{Type: RequirementCount, Target: 50},
		},
		{
			ID:          "photo_milestone_100",
			Category:    CategoryMilestone,
			Name:        "Hundred Day Challenge",
			Description: "Capture 100 photos",
			Icon:        "👑",
			Requirement: Requirement{Type: RequirementCount, Target: 100},
		},
	}
}
