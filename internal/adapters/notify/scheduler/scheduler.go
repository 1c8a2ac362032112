// Package scheduler es el scheduler de notificaciones en proceso: inmediatas y diferidas
// entregadas por un notify.Sender. Los timers son suyos; CancelAll corta todos los del usuario.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"rosie/internal/platform/logger"
	"rosie/internal/ports/notify"
)

var ErrInvalidInput = errors.New("invalid input")

// Timer es lo mínimo que necesitamos de *time.Timer (inyectable en tests).
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Scheduler struct {
	sender notify.Sender
	log    logger.Logger

	afterFunc AfterFunc

	mu     sync.Mutex
	nextID uint64
	timers map[string]map[uint64]Timer
}

func New(sender notify.Sender, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		sender:    sender,
		log:       log,
		afterFunc: stdAfterFunc,
		timers:    make(map[string]map[uint64]Timer),
	}
}

// WithAfterFunc reemplaza el reloj (tests).
func (s *Scheduler) WithAfterFunc(fn AfterFunc) *Scheduler {
	if fn != nil {
		s.afterFunc = fn
	}
	return s
}

func (s *Scheduler) SendImmediate(ctx context.Context, userID string, n notify.Notification) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	return s.sender.Deliver(ctx, userID, n)
}

func (s *Scheduler) ScheduleDelayed(ctx context.Context, userID string, n notify.Notification, delay time.Duration) error {
	if strings.TrimSpace(userID) == "" || delay < 0 {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.timers[userID] == nil {
		s.timers[userID] = make(map[uint64]Timer)
	}
	s.timers[userID][id] = s.afterFunc(delay, func() { s.fire(userID, id, n) })
	return nil
}

func (s *Scheduler) fire(userID string, id uint64, n notify.Notification) {
	s.mu.Lock()
	_, pending := s.timers[userID][id]
	if pending {
		delete(s.timers[userID], id)
		if len(s.timers[userID]) == 0 {
			delete(s.timers, userID)
		}
	}
	s.mu.Unlock()

	// Cancelado entre el disparo y el lock.
	if !pending {
		return
	}

	if err := s.sender.Deliver(context.Background(), userID, n); err != nil {
		s.log.Warn("delayed notification failed", map[string]any{"user_id": userID, "err": err.Error()})
	}
}

func (s *Scheduler) CancelAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	pending := s.timers[userID]
	delete(s.timers, userID)
	s.mu.Unlock()

	for _, t := range pending {
		t.Stop()
	}
	return nil
}

// Pending devuelve cuántas notificaciones diferidas tiene el usuario.
func (s *Scheduler) Pending(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers[userID])
}

// Close cancela todo (shutdown).
func (s *Scheduler) Close() {
	s.mu.Lock()
	all := s.timers
	s.timers = make(map[string]map[uint64]Timer)
	s.mu.Unlock()

	for _, byID := range all {
		for _, t := range byID {
			t.Stop()
		}
	}
}
