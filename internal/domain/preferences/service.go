// Package preferences maneja las preferencias del usuario y el registro del push token.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rosie/internal/domain/pets"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Languages soportados por los textos de notificación.
var Languages = []string{"en", "tr"}

type Service struct {
	settings  settings.Store
	store     docstore.Store
	scheduler notify.Scheduler
	log       logger.Logger
}

func NewService(st settings.Store, store docstore.Store, scheduler notify.Scheduler, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{settings: st, store: store, scheduler: scheduler, log: log}
}

func (s *Service) Get(ctx context.Context, user auth.Claims) (settings.Settings, error) {
	if !user.Authenticated() {
		return settings.Settings{}, ErrUnauthenticated
	}
	return s.settings.Get(ctx, user.UserID)
}

// Update aplica el patch. Apagar notificaciones cancela los recordatorios pendientes.
func (s *Service) Update(ctx context.Context, user auth.Claims, p settings.Patch) (settings.Settings, error) {
	if !user.Authenticated() {
		return settings.Settings{}, ErrUnauthenticated
	}
	if p.Language != nil && !supportedLanguage(*p.Language) {
		return settings.Settings{}, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, *p.Language)
	}

	cur, err := s.settings.Get(ctx, user.UserID)
	if err != nil {
		return settings.Settings{}, err
	}
	next := cur.Apply(p)
	if p.Language != nil {
		next.Language = strings.ToLower(strings.TrimSpace(*p.Language))
	}

	if err := s.settings.Save(ctx, user.UserID, next); err != nil {
		return settings.Settings{}, err
	}

	if cur.NotificationsEnabled && !next.NotificationsEnabled {
		s.cancelReminders(ctx, user.UserID)
	}
	return next, nil
}

// RegisterPush guarda {pushToken, email} en users/{uid}. Si el permiso no fue concedido
// se apagan las notificaciones y no se guarda token.
func (s *Service) RegisterPush(ctx context.Context, user auth.Claims, reg notify.Registration) (settings.Settings, error) {
	if !user.Authenticated() {
		return settings.Settings{}, ErrUnauthenticated
	}

	cur, err := s.settings.Get(ctx, user.UserID)
	if err != nil {
		return settings.Settings{}, err
	}

	if !reg.Granted() {
		off := false
		next := cur.Apply(settings.Patch{NotificationsEnabled: &off})
		if err := s.settings.Save(ctx, user.UserID, next); err != nil {
			return settings.Settings{}, err
		}
		s.cancelReminders(ctx, user.UserID)
		s.log.Info("notification permission not granted", map[string]any{"user_id": user.UserID, "status": string(reg.Status)})
		return next, nil
	}

	token := strings.TrimSpace(reg.Token)
	if token == "" {
		return settings.Settings{}, fmt.Errorf("%w: push token required", ErrInvalidInput)
	}

	doc := docstore.Document{pets.FieldPushToken: token}
	if user.Email != "" {
		doc[pets.FieldEmail] = user.Email
	}
	if err := s.store.Set(ctx, pets.UserPath(user.UserID), doc, true); err != nil {
		return settings.Settings{}, fmt.Errorf("save push token: %w", err)
	}
	return cur, nil
}

func (s *Service) cancelReminders(ctx context.Context, userID string) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.CancelAll(ctx, userID); err != nil {
		s.log.Warn("cancel reminders failed", map[string]any{"user_id": userID, "err": err.Error()})
	}
}

func supportedLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
