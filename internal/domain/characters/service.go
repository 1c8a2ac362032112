package characters

import (
	"context"
	"errors"
	"strings"

	"rosie/internal/domain/pets"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/assets"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/capabilities"
	"rosie/internal/ports/docstore"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("character not found")
	ErrLocked          = errors.New("character locked")
)

type Service struct {
	caps   capabilities.Resolver
	assets assets.Resolver
	store  docstore.Store
	log    logger.Logger
}

func NewService(caps capabilities.Resolver, res assets.Resolver, store docstore.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{caps: caps, assets: res, store: store, log: log}
}

func (s *Service) List(ctx context.Context, user auth.Claims) ([]Entry, error) {
	if !user.Authenticated() {
		return nil, ErrUnauthenticated
	}

	selected, err := s.selected(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(Catalog))
	for _, c := range Catalog {
		out = append(out, s.entry(ctx, user.UserID, c, selected))
	}
	return out, nil
}

func (s *Service) Select(ctx context.Context, user auth.Claims, id string) (Entry, error) {
	if !user.Authenticated() {
		return Entry{}, ErrUnauthenticated
	}
	c, ok := find(strings.ToLower(strings.TrimSpace(id)))
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !s.unlocked(ctx, user.UserID, c) {
		return Entry{}, ErrLocked
	}

	if err := s.store.Set(ctx, pets.UserPath(user.UserID), docstore.Document{FieldCharacter: c.ID}, true); err != nil {
		return Entry{}, err
	}
	return s.entry(ctx, user.UserID, c, c.ID), nil
}

func (s *Service) selected(ctx context.Context, userID string) (string, error) {
	doc, ok, err := s.store.Get(ctx, pets.UserPath(userID))
	if err != nil {
		return "", err
	}
	if !ok {
		return DefaultID, nil
	}
	id, _ := doc[FieldCharacter].(string)
	if _, known := find(id); !known {
		return DefaultID, nil
	}
	return id, nil
}

func (s *Service) entry(ctx context.Context, userID string, c Character, selected string) Entry {
	e := Entry{Character: c, Locked: !s.unlocked(ctx, userID, c), Selected: c.ID == selected}
	if s.assets != nil {
		if u, err := s.assets.URL(ctx, c.Image); err == nil {
			e.ImageURL = u
		}
	}
	return e
}

// unlocked: sin resolver o ante un error del resolver, el personaje queda bloqueado.
func (s *Service) unlocked(ctx context.Context, userID string, c Character) bool {
	if c.Capability == "" {
		return true
	}
	if s.caps == nil {
		return false
	}
	ok, err := s.caps.Has(ctx, userID, c.Capability)
	if err != nil {
		s.log.Debug("capability lookup failed", map[string]any{"user_id": userID, "capability": c.Capability, "err": err.Error()})
		return false
	}
	return ok
}
