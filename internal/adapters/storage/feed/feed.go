// Package feed reparte snapshots de documentos a suscriptores sin bloquear al escritor.
// Cada suscriptor tiene su cola y su goroutine: el orden se respeta por suscriptor.
package feed

import (
	"sync"

	"rosie/internal/ports/docstore"
)

type subscriber struct {
	id       uint64
	path     string
	onChange func(docstore.Snapshot)

	mu     sync.Mutex
	queue  []docstore.Snapshot
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func (s *subscriber) push(snap docstore.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, snap)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.closed || len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			snap := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			s.onChange(snap)
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

// Feed registra suscriptores por path.
type Feed struct {
	mu     sync.Mutex
	nextID uint64
	byPath map[string]map[uint64]*subscriber
}

func New() *Feed {
	return &Feed{byPath: make(map[string]map[uint64]*subscriber)}
}

// Add registra un suscriptor y le entrega initial como primer snapshot.
func (f *Feed) Add(path string, initial docstore.Snapshot, onChange func(docstore.Snapshot)) docstore.Unsubscribe {
	f.mu.Lock()
	f.nextID++
	s := &subscriber{
		id:       f.nextID,
		path:     path,
		onChange: onChange,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if f.byPath[path] == nil {
		f.byPath[path] = make(map[uint64]*subscriber)
	}
	f.byPath[path][s.id] = s
	f.mu.Unlock()

	go s.run()
	s.push(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if subs := f.byPath[path]; subs != nil {
				delete(subs, s.id)
				if len(subs) == 0 {
					delete(f.byPath, path)
				}
			}
			f.mu.Unlock()
			s.close()
		})
	}
}

// Publish encola el snapshot para todos los suscriptores del path.
func (f *Feed) Publish(snap docstore.Snapshot) {
	f.mu.Lock()
	subs := make([]*subscriber, 0, len(f.byPath[snap.Path]))
	for _, s := range f.byPath[snap.Path] {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		s.push(snap)
	}
}

// Paths devuelve los paths con al menos un suscriptor.
func (f *Feed) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.byPath))
	for p := range f.byPath {
		out = append(out, p)
	}
	return out
}

// Watched indica si alguien escucha el path.
func (f *Feed) Watched(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPath[path]) > 0
}

// Close corta todas las suscripciones.
func (f *Feed) Close() {
	f.mu.Lock()
	all := f.byPath
	f.byPath = make(map[string]map[uint64]*subscriber)
	f.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.close()
		}
	}
}
