// Package sqlite guarda las preferencias del usuario en un archivo local
// (modo single-node sin Postgres).
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rosie/internal/ports/settings"
)

//go:embed schema.sql
var schemaSQL string

type SettingsStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open crea o abre la base en path y aplica el esquema.
func Open(path string) (*SettingsStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Un solo escritor.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SettingsStore{db: db, now: time.Now}, nil
}

func (s *SettingsStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SettingsStore) Get(ctx context.Context, userID string) (settings.Settings, error) {
	var out settings.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT notifications_enabled, sounds_enabled, music_enabled, language
		FROM user_settings WHERE user_id = ?
	`, strings.TrimSpace(userID)).Scan(&out.NotificationsEnabled, &out.SoundsEnabled, &out.MusicEnabled, &out.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), nil
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	return out, nil
}

func (s *SettingsStore) Save(ctx context.Context, userID string, v settings.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled, sounds_enabled, music_enabled, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			notifications_enabled = excluded.notifications_enabled,
			sounds_enabled = excluded.sounds_enabled,
			music_enabled = excluded.music_enabled,
			language = excluded.language,
			updated_at = excluded.updated_at
	`, strings.TrimSpace(userID), v.NotificationsEnabled, v.SoundsEnabled, v.MusicEnabled, v.Language, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
