package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowtrack/glowtrack-api/internal/models"
)

// RecordRepository persists care records. The variant payload is stored as a
// JSON document alongside the discriminant column.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

type recordRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Kind       string    `db:"kind"`
	RecordDate time.Time `db:"record_date"`
	Payload    []byte    `db:"payload"`
}

func (row recordRow) toModel() (*models.Record, error) {
	envelope, err := json.Marshal(map[string]interface{}{
		"id":      row.ID,
		"user_id": row.UserID,
		"kind":    row.Kind,
		"date":    row.RecordDate,
		"payload": json.RawMessage(row.Payload),
	})
	if err != nil {
		return nil, fmt.Errorf("assemble record envelope: %w", err)
	}
	var record models.Record
	if err := json.Unmarshal(envelope, &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", row.ID, err)
	}
	return &record, nil
}

func variantPayload(record *models.Record) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	switch record.Kind {
	case models.RecordKindDaily:
		return json.Marshal(record.Daily)
	case models.RecordKindMedical:
		return json.Marshal(record.Medical)
	case models.RecordKindProduct:
		return json.Marshal(record.Product)
	default:
		return nil, fmt.Errorf("unknown record kind %q", record.Kind)
	}
}

// Create stores one record.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	payload, err := variantPayload(record)
	if err != nil {
		return err
	}
	const query = `INSERT INTO records (id, user_id, kind, record_date, payload)
	VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.UserID, string(record.Kind), record.Date, payload); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// GetByID retrieves one record.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	const query = `SELECT id, user_id, kind, record_date, payload FROM records WHERE id = $1`
	var row recordRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// List returns records matching the filter, newest first.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, user_id, kind, record_date, payload FROM records`)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("record_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("record_date <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY record_date DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// Delete removes one record by id.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM records WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check record delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
