package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"rosie/internal/adapters/storage/feed"
	"rosie/internal/ports/docstore"
)

var (
	ErrNotFound = errors.New("not found")
)

// DocStore es un almacén de documentos en memoria con suscripciones en tiempo real.
// Sirve para dev y tests; Postgres es el backend persistente.
type DocStore struct {
	mu     sync.RWMutex
	byPath map[string]docstore.Document
	feed   *feed.Feed

	// FailWrites permite simular una red caída en tests.
	FailWrites error
}

func NewDocStore() *DocStore {
	return &DocStore{
		byPath: make(map[string]docstore.Document),
		feed:   feed.New(),
	}
}

func (s *DocStore) Get(ctx context.Context, path string) (docstore.Document, bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byPath[path]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}

func (s *DocStore) Set(ctx context.Context, path string, doc docstore.Document, merge bool) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	if s.FailWrites != nil {
		return s.FailWrites
	}

	s.mu.Lock()
	current, exists := s.byPath[path]
	next := make(docstore.Document, len(doc))
	if merge && exists {
		next = current.Clone()
	}
	for k, v := range doc {
		next[k] = v
	}
	s.byPath[path] = next
	// Publish solo encola; bajo el lock los snapshots salen en el orden de las escrituras.
	s.feed.Publish(docstore.Snapshot{Path: path, Exists: true, Data: next.Clone()})
	s.mu.Unlock()
	return nil
}

func (s *DocStore) Subscribe(ctx context.Context, path string, onChange func(docstore.Snapshot)) (docstore.Unsubscribe, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	// Snapshot inicial y alta bajo el mismo lock para no perder escrituras intermedias.
	s.mu.RLock()
	defer s.mu.RUnlock()

	initial := docstore.Snapshot{Path: path}
	if doc, ok := s.byPath[path]; ok {
		initial.Exists = true
		initial.Data = doc.Clone()
	}
	return s.feed.Add(path, initial, onChange), nil
}

// Close corta todas las suscripciones activas.
func (s *DocStore) Close() {
	s.feed.Close()
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" || strings.Contains(path, "//") {
		return "", docstore.ErrInvalidPath
	}
	return path, nil
}
