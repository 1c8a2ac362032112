// Package cue implementa audio.Player emitiendo "cues" de reproducción a los clientes conectados
// del usuario (por websocket). El cliente es quien suena; el servidor decide cuándo.
package cue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"rosie/internal/ports/assets"
	"rosie/internal/ports/audio"
)

var ErrInvalidInput = errors.New("invalid input")

const sinkBuffer = 16

type sink struct {
	ch chan audio.Cue
}

type Hub struct {
	assets assets.Resolver

	mu    sync.RWMutex
	sinks map[string]map[*sink]struct{}
	loops map[string]map[string]audio.Cue // loops activos por usuario, para clientes que se conectan tarde
}

func NewHub(res assets.Resolver) *Hub {
	return &Hub{
		assets: res,
		sinks:  make(map[string]map[*sink]struct{}),
		loops:  make(map[string]map[string]audio.Cue),
	}
}

// Attach registra un cliente del usuario. Recibe de inmediato los loops activos.
// detach es idempotente y cierra el canal.
func (h *Hub) Attach(userID string) (<-chan audio.Cue, func()) {
	s := &sink{ch: make(chan audio.Cue, sinkBuffer)}

	h.mu.Lock()
	if h.sinks[userID] == nil {
		h.sinks[userID] = make(map[*sink]struct{})
	}
	h.sinks[userID][s] = struct{}{}
	for _, c := range h.loops[userID] {
		trySend(s, c)
	}
	h.mu.Unlock()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.sinks[userID], s)
			if len(h.sinks[userID]) == 0 {
				delete(h.sinks, userID)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, detach
}

// Listeners devuelve cuántos clientes tiene conectados el usuario.
func (h *Hub) Listeners(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks[userID])
}

func (h *Hub) PlayOnce(ctx context.Context, userID string, s audio.Sound) error {
	c, err := h.cue(ctx, audio.CuePlay, s)
	if err != nil {
		return err
	}
	h.broadcast(userID, c)
	return nil
}

func (h *Hub) Loop(ctx context.Context, userID string, s audio.Sound) (audio.Handle, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	c, err := h.cue(ctx, audio.CueLoop, s)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.loops[userID] == nil {
		h.loops[userID] = make(map[string]audio.Cue)
	}
	h.loops[userID][c.ID] = c
	h.mu.Unlock()

	h.broadcast(userID, c)
	return &handle{hub: h, userID: userID, cue: c}, nil
}

func (h *Hub) cue(ctx context.Context, kind audio.CueKind, s audio.Sound) (audio.Cue, error) {
	if s == "" {
		return audio.Cue{}, ErrInvalidInput
	}
	c := audio.Cue{Kind: kind, ID: uuid.NewString(), Sound: string(s)}
	if h.assets != nil {
		u, err := h.assets.URL(ctx, string(s))
		if err != nil {
			return audio.Cue{}, err
		}
		c.URL = u
	}
	return c, nil
}

func (h *Hub) broadcast(userID string, c audio.Cue) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sinks[userID] {
		trySend(s, c)
	}
}

// trySend descarta si el cliente no da abasto. Se llama con el lock tomado.
func trySend(s *sink, c audio.Cue) {
	select {
	case s.ch <- c:
	default:
	}
}

type handle struct {
	hub    *Hub
	userID string
	cue    audio.Cue
	once   sync.Once
}

func (hd *handle) Stop() error {
	hd.once.Do(func() {
		h := hd.hub
		h.mu.Lock()
		delete(h.loops[hd.userID], hd.cue.ID)
		if len(h.loops[hd.userID]) == 0 {
			delete(h.loops, hd.userID)
		}
		h.mu.Unlock()

		h.broadcast(hd.userID, audio.Cue{Kind: audio.CueStop, ID: hd.cue.ID, Sound: hd.cue.Sound})
	})
	return nil
}
