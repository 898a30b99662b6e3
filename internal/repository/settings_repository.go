package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// SettingMaxEvaluators is the settings key holding the process-wide
// evaluator cap per course.
const SettingMaxEvaluators = "max_evaluators_amount"

// SettingsRepository persists process-wide runtime settings as key/value
// rows.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetInt returns the integer value of a key. found is false when the key
// has never been written.
func (r *SettingsRepository) GetInt(ctx context.Context, key string) (int, bool, error) {
	const query = `SELECT value FROM settings WHERE key = $1`
	var raw string
	if err := r.db.GetContext(ctx, &raw, query, key); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get setting %s: %w", key, err)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse setting %s: %w", key, err)
	}
	return value, true, nil
}

// UpsertInt writes the integer value of a key.
func (r *SettingsRepository) UpsertInt(ctx context.Context, key string, value int) error {
	const query = `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, strconv.Itoa(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
