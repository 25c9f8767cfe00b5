package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// State blob keys. Each key holds one independently serialized JSON document.
const (
	StateKeyPhotos       = "photos"
	StateKeyStorageUsed  = "total_storage_used"
	StateKeyAchievements = "achievements"
)

// ErrStateNotFound signals that no blob exists yet under the requested key.
var ErrStateNotFound = errors.New("state key not found")

// StateRepository persists the application's serialized state blobs in the
// app_state key/value table. Timestamps inside the blobs round-trip through
// RFC 3339 strings.
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository constructs the repository.
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get loads and unmarshals the blob stored under key into dest.
func (r *StateRepository) Get(ctx context.Context, key string, dest interface{}) error {
	var raw []byte
	const query = `SELECT value FROM app_state WHERE key = $1`
	if err := r.db.GetContext(ctx, &raw, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStateNotFound
		}
		return fmt.Errorf("load state %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode state %s: %w", key, err)
	}
	return nil
}

// Set marshals value and upserts it under key.
func (r *StateRepository) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", key, err)
	}
	const query = `INSERT INTO app_state (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("store state %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Missing keys are not an error.
func (r *StateRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM app_state WHERE key = $1`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}
