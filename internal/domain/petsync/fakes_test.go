package petsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rosie/internal/adapters/storage/memory"
	"rosie/internal/domain/mood"
	"rosie/internal/domain/pets"
	"rosie/internal/ports/audio"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

var fixedNow = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

var testUser = auth.Claims{UserID: "u1", Email: "ada@example.com"}

// countingStore cuenta escrituras sobre un DocStore en memoria.
type countingStore struct {
	*memory.DocStore

	mu   sync.Mutex
	sets int
}

func (s *countingStore) Set(ctx context.Context, path string, doc docstore.Document, merge bool) error {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
	return s.DocStore.Set(ctx, path, doc, merge)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type delayed struct {
	n     notify.Notification
	delay time.Duration
}

type fakeScheduler struct {
	mu        sync.Mutex
	immediate []notify.Notification
	delayed   []delayed
	cancels   int
	err       error
}

func (f *fakeScheduler) SendImmediate(ctx context.Context, userID string, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.immediate = append(f.immediate, n)
	return f.err
}

func (f *fakeScheduler) ScheduleDelayed(ctx context.Context, userID string, n notify.Notification, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delayed = append(f.delayed, delayed{n: n, delay: d})
	return f.err
}

func (f *fakeScheduler) CancelAll(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return f.err
}

type fakeHandle struct {
	mu    sync.Mutex
	stops int
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
	return nil
}

func (h *fakeHandle) stopped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops
}

type fakePlayer struct {
	mu      sync.Mutex
	played  []audio.Sound
	loops   []*fakeHandle
	playErr error
}

func (p *fakePlayer) PlayOnce(ctx context.Context, userID string, s audio.Sound) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, s)
	return p.playErr
}

func (p *fakePlayer) Loop(ctx context.Context, userID string, s audio.Sound) (audio.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := &fakeHandle{}
	p.loops = append(p.loops, h)
	return h, nil
}

func (p *fakePlayer) plays() []audio.Sound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audio.Sound(nil), p.played...)
}

type fakeMessages struct{}

func (fakeMessages) StateChanged(lang, petName string, st mood.State) notify.Notification {
	return notify.Notification{Title: petName + " " + string(st), Data: map[string]string{"state": string(st)}}
}

func (fakeMessages) Reminder(lang, petName string, need mood.State) notify.Notification {
	return notify.Notification{Title: "reminder", Data: map[string]string{"state": string(need)}}
}

type harness struct {
	ctrl     *Controller
	store    *countingStore
	sched    *fakeScheduler
	player   *fakePlayer
	settings settings.Store
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	mem := memory.NewDocStore()
	t.Cleanup(mem.Close)

	h := &harness{
		store:    &countingStore{DocStore: mem},
		sched:    &fakeScheduler{},
		player:   &fakePlayer{},
		settings: memory.NewSettingsStore(),
	}
	if opts.Chooser == nil {
		opts.Chooser = mood.FixedChooser(mood.StateTired)
	}
	h.ctrl = NewController(Deps{
		Store:     h.store,
		Scheduler: h.sched,
		Player:    h.player,
		Settings:  h.settings,
		Messages:  fakeMessages{},
	}, opts)
	h.ctrl.now = func() time.Time { return fixedNow }
	return h
}

func (h *harness) seed(t *testing.T, st mood.State, last time.Time) {
	t.Helper()
	rec := pets.Record{Name: pets.DefaultName, State: st, LastInteraction: last.UnixMilli(), UserEmail: testUser.Email}
	require.NoError(t, h.store.DocStore.Set(context.Background(), pets.StatusPath(testUser.UserID), rec.ToDocument(), false))
}

func (h *harness) stored(t *testing.T) pets.Record {
	t.Helper()
	doc, ok, err := h.store.Get(context.Background(), pets.StatusPath(testUser.UserID))
	require.NoError(t, err)
	require.True(t, ok)
	rec, err := pets.FromDocument(doc)
	require.NoError(t, err)
	return rec
}

var errOffline = errors.New("offline")
