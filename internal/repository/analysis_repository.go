package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

// AnalysisRepository persists skin analysis reports.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository constructs the repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

type analysisRow struct {
	ID        string    `db:"id"`
	PhotoID   string    `db:"photo_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	Scores    []byte    `db:"scores"`
	Insights  []byte    `db:"insights"`
	Issues    []byte    `db:"issues"`
	Delta     []byte    `db:"delta"`
}

func (row analysisRow) toModel() (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{
		ID:        row.ID,
		PhotoID:   row.PhotoID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Scores, &report.Scores); err != nil {
		return nil, fmt.Errorf("decode analysis scores: %w", err)
	}
	if err := json.Unmarshal(row.Insights, &report.Insights); err != nil {
		return nil, fmt.Errorf("decode analysis insights: %w", err)
	}
	if err := json.Unmarshal(row.Issues, &report.DetectedIssues); err != nil {
		return nil, fmt.Errorf("decode analysis issues: %w", err)
	}
	if err := json.Unmarshal(row.Delta, &report.ComparisonWithLast); err != nil {
		return nil, fmt.Errorf("decode analysis delta: %w", err)
	}
	return report, nil
}

// Create stores one analysis report.
func (r *AnalysisRepository) Create(ctx context.Context, report *models.AnalysisReport) error {
	scores, err := json.Marshal(report.Scores)
	if err != nil {
		return fmt.Errorf("encode analysis scores: %w", err)
	}
	insights, err := json.Marshal(report.Insights)
	if err != nil {
		return fmt.Errorf("encode analysis insights: %w", err)
	}
	issues, err := json.Marshal(report.DetectedIssues)
	if err != nil {
		return fmt.Errorf("encode analysis issues: %w", err)
	}
	delta, err := json.Marshal(report.ComparisonWithLast)
	if err != nil {
		return fmt.Errorf("encode analysis delta: %w", err)
	}

	const query = `INSERT INTO analyses (id, photo_id, user_id, created_at, scores, insights, issues, delta)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.PhotoID, report.UserID, report.CreatedAt,
		scores, insights, issues, delta); err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// GetByID retrieves one analysis report.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*models.AnalysisReport, error) {
	const query = `SELECT id, photo_id, user_id, created_at, scores, insights, issues, delta
	FROM analyses WHERE id = $1`
	var row analysisRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// LatestByUser returns the most recent report for a user, or sql.ErrNoRows.
func (r *AnalysisRepository) LatestByUser(ctx context.Context, userID string) (*models.AnalysisReport, error) {
	const query = `SELECT id, photo_id, user_id, created_at, scores, insights, issues, delta
	FROM analyses WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	var row analysisRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListByPhoto returns all reports referencing one photo, newest first.
func (r *AnalysisRepository) ListByPhoto(ctx context.Context, photoID string) ([]models.AnalysisReport, error) {
	const query = `SELECT id, photo_id, user_id, created_at, scores, insights, issues, delta
	FROM analyses WHERE photo_id = $1 ORDER BY created_at DESC`
	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, photoID); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	reports := make([]models.AnalysisReport, 0, len(rows))
	for _, row := range rows {
		report, err := row.toModel()
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}
