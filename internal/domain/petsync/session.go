package petsync

import (
	"context"
	"sync"
	"time"

	"rosie/internal/domain/mood"
	"rosie/internal/domain/pets"
	"rosie/internal/ports/audio"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/settings"
)

// Status es el estado del controlador para una sesión.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
)

// Session agrupa lo que vive mientras el usuario observa a su mascota:
// la suscripción, el audio de fondo y el chequeo periódico de decay.
// Close libera todo exactamente una vez.
type Session struct {
	ctrl   *Controller
	user   auth.Claims
	stream *Stream
	music  audio.Handle

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Open inicia la sesión: uninitialized -> loading -> ready (primer snapshot).
func (c *Controller) Open(ctx context.Context, user auth.Claims) (*Session, error) {
	stream, err := c.Observe(ctx, user)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		ctrl:   c,
		user:   user,
		stream: stream,
		cancel: cancel,
	}

	s.music = c.acquireMusic(sctx, user)

	s.wg.Add(1)
	go s.decayLoop(sctx)

	return s, nil
}

func (c *Controller) acquireMusic(ctx context.Context, user auth.Claims) audio.Handle {
	if c.deps.Player == nil {
		return nil
	}
	prefs := settings.Defaults()
	if c.deps.Settings != nil {
		if p, err := c.deps.Settings.Get(ctx, user.UserID); err == nil {
			prefs = p
		}
	}
	if !prefs.MusicEnabled {
		return nil
	}
	h, err := c.deps.Player.Loop(ctx, user.UserID, audio.SoundMusic)
	if err != nil {
		c.deps.Logger.Warn("background music failed", map[string]any{"user_id": user.UserID, "err": err.Error()})
		return nil
	}
	return h
}

func (s *Session) decayLoop(ctx context.Context) {
	defer s.wg.Done()

	t := time.NewTicker(s.ctrl.opts.DecayInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.ctrl.CheckDecay(ctx, s.user); err != nil && ctx.Err() == nil {
				s.ctrl.deps.Logger.Warn("decay check failed", map[string]any{"user_id": s.user.UserID, "err": err.Error()})
			}
		}
	}
}

func (s *Session) User() auth.Claims {
	return s.user
}

// Records es la secuencia perezosa de snapshots de la sesión.
func (s *Session) Records() <-chan pets.Record {
	return s.stream.C()
}

// Next espera el próximo snapshot.
func (s *Session) Next(ctx context.Context) (pets.Record, error) {
	return s.stream.Next(ctx)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return StatusUninitialized
	}
	select {
	case <-s.stream.Ready():
		return StatusReady
	default:
		return StatusLoading
	}
}

// Apply aplica una acción como el usuario de la sesión.
func (s *Session) Apply(ctx context.Context, a mood.Action) (Result, error) {
	return s.ctrl.ApplyAction(ctx, s.user, a)
}

// Close desuscribe, frena el decay y libera el audio de fondo.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.stream.Close()
	s.wg.Wait()

	if s.music != nil {
		return s.music.Stop()
	}
	return nil
}
