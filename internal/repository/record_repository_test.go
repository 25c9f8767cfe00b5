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

func TestRecordRepositoryCreateMedical(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	record := &models.Record{
		ID:     "r1",
		UserID: "u1",
		Kind:   models.RecordKindMedical,
		Date:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Medical: &models.MedicalEntry{
			Treatment: "chemical peel",
			Clinic:    "Derma Clinic",
			Price:     120,
			Rating:    5,
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
		WithArgs("r1", "u1", "medical", record.Date, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryCreateRejectsMismatch(t *testing.T) {
	db, _, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	record := &models.Record{
		UserID: "u1",
		Kind:   models.RecordKindDaily,
		Medical: &models.MedicalEntry{
			Treatment: "facial",
		},
	}

	assert.Error(t, repo.Create(context.Background(), record))
}

func TestRecordRepositoryGetByIDRestoresVariant(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	payload, err := json.Marshal(models.DailyEntry{PhotoID: "p1", Products: []string{"toner"}})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "record_date", "payload"}).
		AddRow("r1", "u1", "daily", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), payload)
	mock.ExpectQuery("SELECT id, user_id, kind, record_date, payload FROM records WHERE id =").
		WithArgs("r1").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, models.RecordKindDaily, record.Kind)
	require.NotNil(t, record.Daily)
	assert.Equal(t, "p1", record.Daily.PhotoID)
	assert.Nil(t, record.Medical)
	assert.Nil(t, record.Product)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	payload, err := json.Marshal(models.ProductEntry{ProductID: "serum-1", Feelings: []string{"soothing"}})
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "record_date", "payload"}).
		AddRow("r2", "u1", "product", from.AddDate(0, 0, 10), payload)

	mock.ExpectQuery(`FROM records WHERE user_id = \$1 AND kind = \$2 AND record_date >= \$3 ORDER BY record_date DESC LIMIT 50 OFFSET 0`).
		WithArgs("u1", "product", from).
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.RecordFilter{
		UserID:   "u1",
		Kind:     models.RecordKindProduct,
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "serum-1", records[0].Product.ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newStateRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
