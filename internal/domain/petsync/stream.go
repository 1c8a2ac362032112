package petsync

import (
	"context"
	"errors"
	"sync"

	"rosie/internal/domain/pets"
	"rosie/internal/ports/docstore"
)

var ErrStreamClosed = errors.New("stream closed")

// Stream es una secuencia perezosa e infinita de snapshots del registro.
// No se puede reiniciar: después de Close hay que abrir otra con Observe.
type Stream struct {
	out   chan pets.Record
	done  chan struct{}
	wake  chan struct{}
	ready chan struct{}

	mu        sync.Mutex
	queue     []pets.Record
	last      *pets.Record
	readyOnce sync.Once
	closeOnce sync.Once

	unsubscribe docstore.Unsubscribe
}

func newStream() *Stream {
	s := &Stream{
		out:   make(chan pets.Record),
		done:  make(chan struct{}),
		wake:  make(chan struct{}, 1),
		ready: make(chan struct{}),
	}
	go s.pump()
	return s
}

// C devuelve el canal de snapshots; se cierra con Close.
func (s *Stream) C() <-chan pets.Record {
	return s.out
}

// Next bloquea hasta el próximo snapshot, el cierre del stream o ctx.
func (s *Stream) Next(ctx context.Context) (pets.Record, error) {
	select {
	case r, ok := <-s.out:
		if !ok {
			return pets.Record{}, ErrStreamClosed
		}
		return r, nil
	case <-ctx.Done():
		return pets.Record{}, ctx.Err()
	}
}

// Ready se cierra al entregar el primer snapshot.
func (s *Stream) Ready() <-chan struct{} {
	return s.ready
}

// Close desuscribe del store remoto. Es idempotente.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsub := s.unsubscribe
		s.queue = nil
		s.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		close(s.done)
	})
}

// emit encola sin bloquear. Descarta duplicados consecutivos.
func (s *Stream) emit(r pets.Record) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	if s.last != nil && *s.last == r {
		s.mu.Unlock()
		return
	}
	last := r
	s.last = &last
	s.queue = append(s.queue, r)
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Stream) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.done:
				return
			case <-s.wake:
				continue
			}
		}
		r := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- r:
		case <-s.done:
			return
		}
	}
}
