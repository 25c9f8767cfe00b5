package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

func newStateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStateRepositorySetAndGet(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewStateRepository(db)

	takenAt := time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)
	photos := []models.Photo{{
		ID:      "p1",
		UserID:  "u1",
		TakenAt: takenAt,
		Metadata: models.PhotoMetadata{
			FileSizeBytes: 1048576,
			Format:        models.FormatJPEG,
		},
	}}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO app_state")).
		WithArgs(StateKeyPhotos, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Set(context.Background(), StateKeyPhotos, photos))

	raw, err := json.Marshal(photos)
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"value"}).AddRow(raw)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM app_state")).
		WithArgs(StateKeyPhotos).
		WillReturnRows(rows)

	var loaded []models.Photo
	require.NoError(t, repo.Get(context.Background(), StateKeyPhotos, &loaded))
	require.Len(t, loaded, 1)
	require.Equal(t, "p1", loaded[0].ID)
	require.True(t, loaded[0].TakenAt.Equal(takenAt))
	require.Equal(t, int64(1048576), loaded[0].Metadata.FileSizeBytes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateRepositoryGetMissingKey(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewStateRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM app_state")).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	var dest int64
	err := repo.Get(context.Background(), "absent", &dest)
	require.ErrorIs(t, err, ErrStateNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateRepositoryStoresAggregateCounter(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewStateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO app_state")).
		WithArgs(StateKeyStorageUsed, []byte("2097152"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Set(context.Background(), StateKeyStorageUsed, int64(2097152)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStateRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewStateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM app_state")).
		WithArgs(StateKeyAchievements).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Delete(context.Background(), StateKeyAchievements))
	require.NoError(t, mock.ExpectationsWereMet())
}
