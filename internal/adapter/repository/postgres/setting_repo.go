package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/binrental/binrental-backend/internal/domain"
)

// settingRepository implements domain.SettingRepository
type settingRepository struct {
	db *DB
}

// NewSettingRepository creates a new settings repository
func NewSettingRepository(db *DB) domain.SettingRepository {
	return &settingRepository{db: db}
}

// Get returns the raw value for key
func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// Set upserts the value for key
func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
