package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

func sampleReport() *models.AnalysisReport {
	return &models.AnalysisReport{
		ID:        "a1",
		PhotoID:   "p1",
		UserID:    "u1",
		CreatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		Scores: models.AnalysisScores{
			Overall: 82, Hydration: 75, Elasticity: 88, Pores: 70, Texture: 79, Radiance: 85,
		},
		Insights: []models.AnalysisInsight{{
			Category: "hydration",
			Title:    "Hydration on track",
			Severity: models.SeveritySuccess,
		}},
		DetectedIssues:     []models.DetectedIssue{},
		ComparisonWithLast: models.AnalysisScores{Overall: 3},
	}
}

func reportRows(report *models.AnalysisReport) *sqlmock.Rows {
	scores, _ := json.Marshal(report.Scores)
	insights, _ := json.Marshal(report.Insights)
	issues, _ := json.Marshal(report.DetectedIssues)
	delta, _ := json.Marshal(report.ComparisonWithLast)
	return sqlmock.NewRows([]string{"id", "photo_id", "user_id", "created_at", "scores", "insights", "issues", "delta"}).
		AddRow(report.ID, report.PhotoID, report.UserID, report.CreatedAt, scores, insights, issues, delta)
}

func TestAnalysisRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	report := sampleReport()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analyses")).
		WithArgs(report.ID, report.PhotoID, report.UserID, report.CreatedAt,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), report))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	report := sampleReport()

	mock.ExpectQuery("SELECT id, photo_id, user_id, created_at, scores, insights, issues, delta\\s+FROM analyses WHERE id =").
		WithArgs("a1").
		WillReturnRows(reportRows(report))

	fetched, err := repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, report.Scores, fetched.Scores)
	assert.Equal(t, 3, fetched.ComparisonWithLast.Overall)
	require.Len(t, fetched.Insights, 1)
	assert.Equal(t, "hydration", fetched.Insights[0].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryLatestByUserEmpty(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)

	mock.ExpectQuery("FROM analyses WHERE user_id =").
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestByUser(context.Background(), "u1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryListByPhoto(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	report := sampleReport()

	mock.ExpectQuery("FROM analyses WHERE photo_id =").
		WithArgs("p1").
		WillReturnRows(reportRows(report))

	reports, err := repo.ListByPhoto(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "a1", reports[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
