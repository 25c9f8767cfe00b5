package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

// RecordRepository abstracts persistence for tracking records.
type RecordRepository interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id string) (*models.Record, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.Record, error)
	Delete(ctx context.Context, id string) error
}

// RecordService manages the daily, medical and product tracking entries.
type RecordService struct {
	repo   RecordRepository
	logger *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(repo RecordRepository, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{repo: repo, logger: logger}
}

// Create validates and persists a new record. Exactly one variant payload
// must be populated and it must match the declared kind.
func (s *RecordService) Create(ctx context.Context, userID string, record *models.Record) (*models.Record, error) {
	record.UserID = userID
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	if err := record.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record")
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create record")
	}
	return record, nil
}

// Get returns one record by id, scoped to the user.
func (s *RecordService) Get(ctx context.Context, userID, id string) (*models.Record, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch record")
	}
	if record.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
	}
	return record, nil
}

// List returns the user's records matching the filter, newest first.
func (s *RecordService) List(ctx context.Context, userID string, filter models.RecordFilter) ([]models.Record, error) {
	filter.UserID = userID
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	return records, nil
}

// Delete removes one record by id, scoped to the user.
func (s *RecordService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	return nil
}
