package settings

import (
	"context"
	"strings"
)

// Settings son las preferencias locales del usuario.
type Settings struct {
	NotificationsEnabled bool
	SoundsEnabled        bool
	MusicEnabled         bool
	Language             string
}

// Defaults: todo habilitado, idioma inglés.
func Defaults() Settings {
	return Settings{
		NotificationsEnabled: true,
		SoundsEnabled:        true,
		MusicEnabled:         true,
		Language:             "en",
	}
}

// Patch aplica solo los campos presentes (nil = no tocar).
type Patch struct {
	NotificationsEnabled *bool
	SoundsEnabled        *bool
	MusicEnabled         *bool
	Language             *string
}

func (s Settings) Apply(p Patch) Settings {
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.SoundsEnabled != nil {
		s.SoundsEnabled = *p.SoundsEnabled
	}
	if p.MusicEnabled != nil {
		s.MusicEnabled = *p.MusicEnabled
	}
	if p.Language != nil && strings.TrimSpace(*p.Language) != "" {
		s.Language = strings.TrimSpace(*p.Language)
	}
	return s
}

// Store persiste settings por usuario. Get devuelve Defaults si no hay nada guardado.
type Store interface {
	Get(ctx context.Context, userID string) (Settings, error)
	Save(ctx context.Context, userID string, s Settings) error
}
