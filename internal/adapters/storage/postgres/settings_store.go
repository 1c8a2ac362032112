package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rosie/internal/ports/settings"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (r *SettingsStore) Get(ctx context.Context, userID string) (settings.Settings, error) {
	var s settings.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT notifications_enabled, sounds_enabled, music_enabled, language
		FROM user_settings
		WHERE user_id = $1
	`, strings.TrimSpace(userID)).Scan(&s.NotificationsEnabled, &s.SoundsEnabled, &s.MusicEnabled, &s.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SettingsStore) Save(ctx context.Context, userID string, s settings.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled, sounds_enabled, music_enabled, language, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			notifications_enabled = EXCLUDED.notifications_enabled,
			sounds_enabled = EXCLUDED.sounds_enabled,
			music_enabled = EXCLUDED.music_enabled,
			language = EXCLUDED.language,
			updated_at = now()
	`, strings.TrimSpace(userID), s.NotificationsEnabled, s.SoundsEnabled, s.MusicEnabled, s.Language)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
