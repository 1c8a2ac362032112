// Package logsender "entrega" notificaciones escribiéndolas en el log (modo dev).
package logsender

import (
	"context"

	"rosie/internal/platform/logger"
	"rosie/internal/ports/notify"
)

type Sender struct {
	log logger.Logger
}

func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log}
}

func (s *Sender) Deliver(ctx context.Context, userID string, n notify.Notification) error {
	s.log.Info("notification", map[string]any{
		"user_id": userID,
		"title":   n.Title,
		"body":    n.Body,
	})
	return nil
}
