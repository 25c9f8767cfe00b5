package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
	"github.com/glowtrack/glowtrack-api/internal/repository"
)

func TestAchievementServiceUnlocksOnce(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)
	ctx := context.Background()

	unlocked := svc.CheckPhotoCount(ctx, "u1", 15)
	ids := achievementIDs(unlocked)
	assert.Contains(t, ids, "first_photo")
	assert.Contains(t, ids, "photo_milestone_10")
	assert.NotContains(t, ids, "photo_milestone_50")

	var firstUnlockedAt time.Time
	for _, a := range svc.Status("u1") {
		if a.ID == "photo_milestone_10" {
			require.True(t, a.Unlocked)
			firstUnlockedAt = *a.UnlockedAt
		}
	}

	// A later check past the same threshold reports nothing new and leaves
	// the original unlock timestamp untouched.
	again := svc.CheckPhotoCount(ctx, "u1", 20)
	assert.Empty(t, achievementIDs(again))

	for _, a := range svc.Status("u1") {
		if a.ID == "photo_milestone_10" {
			assert.True(t, a.UnlockedAt.Equal(firstUnlockedAt))
			assert.Equal(t, 100, a.Progress)
		}
	}
}

func TestAchievementServiceUnlockRaisesProgressTo100(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)
	ctx := context.Background()

	unlocked := svc.CheckPhotoCount(ctx, "u1", 1)
	assert.Contains(t, achievementIDs(unlocked), "first_photo")

	for _, a := range svc.Status("u1") {
		if a.ID == "first_photo" {
			assert.Equal(t, 100, a.Progress)
		}
	}
}

func TestAchievementServiceProgressNeverRegresses(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)
	ctx := context.Background()

	svc.CheckDailyStreak(ctx, "u1", 5)
	svc.CheckDailyStreak(ctx, "u1", 2)

	for _, a := range svc.Status("u1") {
		if a.ID == "week_streak" {
			assert.Equal(t, 5, a.Progress)
			assert.False(t, a.Unlocked)
		}
	}
}

func TestAchievementServiceStreakUnlocks(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)

	unlocked := svc.CheckDailyStreak(context.Background(), "u1", 7)
	ids := achievementIDs(unlocked)
	assert.Contains(t, ids, "week_streak")
	assert.NotContains(t, ids, "month_streak")
}

func TestAchievementServiceImprovementUnlocks(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)

	assert.Empty(t, svc.CheckSkinImprovement(context.Background(), "u1", 9))
	unlocked := svc.CheckSkinImprovement(context.Background(), "u1", 11)
	assert.Contains(t, achievementIDs(unlocked), "skin_improvement_10")
}

func TestAchievementServiceUpdateProgressUnknownID(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)

	_, err := svc.UpdateProgress(context.Background(), "u1", "no_such_badge", 3)
	assert.Error(t, err)
}

func TestAchievementServicePersistsAndReloads(t *testing.T) {
	state := newStateStoreStub()
	ctx := context.Background()

	first := NewAchievementService(state, nil)
	first.CheckPhotoCount(ctx, "u1", 10)

	second := NewAchievementService(state, nil)
	require.NoError(t, second.Load(ctx))

	unlockedIDs := make([]string, 0)
	for _, a := range second.Unlocked("u1") {
		unlockedIDs = append(unlockedIDs, a.ID)
	}
	assert.Contains(t, unlockedIDs, "first_photo")
	assert.Contains(t, unlockedIDs, "photo_milestone_10")

	// Replaying the threshold after a reload still unlocks nothing new.
	assert.Empty(t, achievementIDs(second.CheckPhotoCount(ctx, "u1", 12)))
}

func TestAchievementServiceStatusCoversFullCatalog(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)

	status := svc.Status("u1")
	assert.Len(t, status, len(models.DefaultAchievementCatalog()))
	for _, a := range status {
		assert.False(t, a.Unlocked)
		assert.Equal(t, 0, a.Progress)
	}
}

func TestAchievementServiceIsolatesUsers(t *testing.T) {
	svc := NewAchievementService(newStateStoreStub(), nil)
	ctx := context.Background()

	svc.CheckPhotoCount(ctx, "u1", 50)
	assert.Empty(t, svc.Unlocked("u2"))
}

func TestAchievementServiceLoadDropsRetiredEntries(t *testing.T) {
	state := newStateStoreStub()
	ctx := context.Background()
	now := time.Now().UTC()
	stored := []models.UserAchievement{
		{UserID: "u1", AchievementID: "first_photo", Progress: 1, UnlockedAt: &now},
		{UserID: "u1", AchievementID: "legacy_badge", Progress: 4, UnlockedAt: &now},
	}
	require.NoError(t, state.Set(ctx, repository.StateKeyAchievements, stored))

	svc := NewAchievementService(state, nil)
	require.NoError(t, svc.Load(ctx))

	unlocked := svc.Unlocked("u1")
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first_photo", unlocked[0].ID)
}

func achievementIDs(defs []models.AchievementType) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}
