package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(t *testing.T) (*ReportService, *PhotoService, *AchievementService) {
	t.Helper()
	photos := newTestPhotoService(newStateStoreStub(), nil)
	achievements := NewAchievementService(newStateStoreStub(), nil)
	return NewReportService(photos, achievements, nil), photos, achievements
}

func TestPhotoHistoryCSV(t *testing.T) {
	svc, photos, _ := newReportFixture(t)
	ctx := context.Background()

	taken := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, photos.Add(ctx, makePhoto("p1", "u1", taken, 2048)))

	file, err := svc.PhotoHistory(ctx, "u1", taken.AddDate(0, -1, 0), taken.AddDate(0, 1, 0), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.FileName, ".csv"))

	body := string(file.Data)
	assert.Contains(t, body, "Photo ID")
	assert.Contains(t, body, "p1")
	assert.Contains(t, body, "2026-06-01 10:30")
}

func TestPhotoHistoryPDF(t *testing.T) {
	svc, photos, _ := newReportFixture(t)
	ctx := context.Background()
	require.NoError(t, photos.Add(ctx, makePhoto("p1", "u1", time.Now(), 2048)))

	file, err := svc.PhotoHistory(ctx, "u1", time.Now().AddDate(0, -1, 0), time.Now(), FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestProgressSummaryIncludesAchievements(t *testing.T) {
	svc, photos, achievements := newReportFixture(t)
	ctx := context.Background()

	require.NoError(t, photos.Add(ctx, makePhoto("p1", "u1", time.Now(), 1024*1024)))
	achievements.CheckPhotoCount(ctx, "u1", 1)

	file, err := svc.ProgressSummary(ctx, "u1", FormatCSV)
	require.NoError(t, err)

	body := string(file.Data)
	assert.Contains(t, body, "Photos stored")
	assert.Contains(t, body, "Achievement: First Step")
	assert.Contains(t, body, "unlocked")
}

func TestReportUnsupportedFormat(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	_, err := svc.PhotoHistory(context.Background(), "u1", time.Now().AddDate(0, -1, 0), time.Now(), ReportFormat("xml"))
	assert.Error(t, err)
}
