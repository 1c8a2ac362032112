// Package accounts expone registro, login y logout sobre el Identity Provider configurado.
package accounts

import (
	"context"
	"errors"
	"strings"

	"rosie/internal/platform/logger"
	"rosie/internal/ports/auth"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	provider auth.Provider
	log      logger.Logger
}

func NewService(provider auth.Provider, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, log: log}
}

func (s *Service) Register(ctx context.Context, email, password string) (auth.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.Session{}, ErrInvalidInput
	}
	sess, err := s.provider.Register(ctx, email, password)
	if err != nil {
		return auth.Session{}, err
	}
	s.log.Info("account registered", map[string]any{"user_id": sess.Claims.UserID})
	return sess, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (auth.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.Session{}, ErrInvalidInput
	}
	return s.provider.Login(ctx, email, password)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}
	return s.provider.Logout(ctx, token)
}
