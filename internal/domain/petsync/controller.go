package petsync

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"rosie/internal/domain/mood"
	"rosie/internal/domain/pets"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/audio"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPersist         = errors.New("persist pet record")
)

// DefaultReminderDelay es el recordatorio que se programa cuando la mascota queda feliz.
const DefaultReminderDelay = 30 * time.Minute

// Messages arma los textos de las notificaciones (localizados).
type Messages interface {
	StateChanged(lang, petName string, st mood.State) notify.Notification
	Reminder(lang, petName string, need mood.State) notify.Notification
}

type Deps struct {
	Store     docstore.Store
	Scheduler notify.Scheduler
	Player    audio.Player
	Settings  settings.Store
	Messages  Messages
	Logger    logger.Logger
}

type Options struct {
	Policy        mood.Policy
	PetName       string
	IdleThreshold time.Duration
	ReminderDelay time.Duration
	DecayInterval time.Duration
	Chooser       mood.Chooser
}

// Result describe lo que pasó al aplicar una acción.
type Result struct {
	Record   pets.Record
	Previous mood.State
	Changed  bool
}

// userStripes: escritura+encolado de efectos se serializan por usuario (hash del id).
const userStripes = 64

type Controller struct {
	deps Deps
	opts Options
	now  func() time.Time

	effects sync.WaitGroup

	writeMu [userStripes]sync.Mutex

	// cola FIFO de efectos por usuario; la clave existe mientras hay un worker drenando.
	queueMu sync.Mutex
	queues  map[string][]func()
}

func NewController(deps Deps, opts Options) *Controller {
	if opts.Policy == "" {
		opts.Policy = mood.PolicySimple
	}
	if opts.PetName == "" {
		opts.PetName = pets.DefaultName
	}
	if opts.IdleThreshold <= 0 {
		opts.IdleThreshold = mood.IdleThreshold
	}
	if opts.ReminderDelay <= 0 {
		opts.ReminderDelay = DefaultReminderDelay
	}
	if opts.DecayInterval <= 0 {
		opts.DecayInterval = time.Minute
	}
	if opts.Chooser == nil {
		opts.Chooser = mood.UniformChooser(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Controller{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		queues: make(map[string][]func()),
	}
}

// Wait espera a que terminen los efectos en curso (sonido, notificaciones, creación inicial).
func (c *Controller) Wait() {
	c.effects.Wait()
}

// Observe se suscribe al registro de la mascota. Si no existe, lo crea con defaults
// (una sola escritura por stream) y lo entrega de inmediato.
// La creación no está protegida contra dos clientes inicializando a la vez.
func (c *Controller) Observe(ctx context.Context, user auth.Claims) (*Stream, error) {
	if !user.Authenticated() {
		return nil, ErrUnauthenticated
	}

	path := pets.StatusPath(user.UserID)
	log := c.deps.Logger.With(map[string]any{"user_id": user.UserID})
	st := newStream()

	var createOnce sync.Once
	onChange := func(snap docstore.Snapshot) {
		if !snap.Exists {
			createOnce.Do(func() {
				rec := pets.NewDefault(c.opts.PetName, mood.DefaultState(c.opts.Policy), c.now(), user.Email)
				c.goEffect(func() {
					if err := c.deps.Store.Set(context.WithoutCancel(ctx), path, rec.ToDocument(), false); err != nil {
						log.Error("create default pet record failed", map[string]any{"err": err.Error()})
					}
				})
				st.emit(rec)
			})
			return
		}

		rec, err := pets.FromDocument(snap.Data)
		if err != nil {
			log.Warn("skipping invalid pet record", map[string]any{"err": err.Error()})
			return
		}
		st.emit(rec)
	}

	unsub, err := c.deps.Store.Subscribe(ctx, path, onChange)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("subscribe pet record: %w", err)
	}

	st.mu.Lock()
	st.unsubscribe = unsub
	st.mu.Unlock()

	// Si Close llegó antes de tener el unsubscribe, cortamos igual.
	select {
	case <-st.done:
		unsub()
	default:
	}

	return st, nil
}

// Current devuelve el registro actual, creándolo si no existe.
func (c *Controller) Current(ctx context.Context, user auth.Claims) (pets.Record, error) {
	if !user.Authenticated() {
		return pets.Record{}, ErrUnauthenticated
	}
	rec, exists, err := c.load(ctx, user)
	if err != nil {
		return pets.Record{}, err
	}
	if !exists {
		if err := c.deps.Store.Set(ctx, pets.StatusPath(user.UserID), rec.ToDocument(), false); err != nil {
			return pets.Record{}, fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	return rec, nil
}

// ApplyAction aplica una acción de remedio. Sin usuario es un no-op (no error).
func (c *Controller) ApplyAction(ctx context.Context, user auth.Claims, action mood.Action) (Result, error) {
	if !user.Authenticated() {
		return Result{}, nil
	}
	if action.Remedies() == "" {
		return Result{}, mood.ErrUnknownAction
	}

	cur, exists, err := c.load(ctx, user)
	if err != nil {
		return Result{}, err
	}

	next, changed := mood.Next(c.opts.Policy, cur.State, action)
	if !changed {
		return Result{Record: cur, Previous: cur.State}, nil
	}
	return c.transition(ctx, user, cur, exists, next, effectSound)
}

// ForceState fija el estado directamente (menú de desarrollo).
func (c *Controller) ForceState(ctx context.Context, user auth.Claims, st mood.State) (Result, error) {
	if !user.Authenticated() {
		return Result{}, nil
	}
	if !st.Valid() {
		return Result{}, mood.ErrUnknownState
	}

	cur, exists, err := c.load(ctx, user)
	if err != nil {
		return Result{}, err
	}
	if exists && cur.State == st {
		return Result{Record: cur, Previous: cur.State}, nil
	}
	return c.transition(ctx, user, cur, exists, st, effectSound)
}

// CheckDecay evalúa la degradación pasiva y la persiste si corresponde.
func (c *Controller) CheckDecay(ctx context.Context, user auth.Claims) (Result, error) {
	if !user.Authenticated() {
		return Result{}, nil
	}

	cur, exists, err := c.load(ctx, user)
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return Result{Record: cur, Previous: cur.State}, nil
	}

	next, fired := mood.Decay(cur.State, cur.LastInteractionTime(), c.now(), c.opts.IdleThreshold, c.opts.Chooser)
	if !fired {
		return Result{Record: cur, Previous: cur.State}, nil
	}
	return c.transition(ctx, user, cur, exists, next, 0)
}

func (c *Controller) load(ctx context.Context, user auth.Claims) (pets.Record, bool, error) {
	doc, ok, err := c.deps.Store.Get(ctx, pets.StatusPath(user.UserID))
	if err != nil {
		return pets.Record{}, false, fmt.Errorf("load pet record: %w", err)
	}
	if !ok {
		return pets.NewDefault(c.opts.PetName, mood.DefaultState(c.opts.Policy), c.now(), user.Email), false, nil
	}
	rec, err := pets.FromDocument(doc)
	if err != nil {
		return pets.Record{}, false, err
	}
	return rec, true, nil
}

type effectFlags int

const (
	effectSound effectFlags = 1 << iota
)

func (c *Controller) transition(ctx context.Context, user auth.Claims, cur pets.Record, exists bool, next mood.State, flags effectFlags) (Result, error) {
	log := c.deps.Logger.With(map[string]any{"user_id": user.UserID})

	ts := c.now().UnixMilli()
	if exists && ts < cur.LastInteraction {
		ts = cur.LastInteraction
	}

	updated := cur
	updated.State = next
	updated.LastInteraction = ts
	if user.Email != "" {
		updated.UserEmail = user.Email
	}

	patch := docstore.Document{
		pets.FieldState:           string(next),
		pets.FieldLastInteraction: ts,
	}
	if updated.UserEmail != "" {
		patch[pets.FieldUserEmail] = updated.UserEmail
	}
	if !exists {
		patch[pets.FieldName] = updated.Name
	}

	// Los efectos salen en el mismo orden que las escrituras.
	unlock := c.lockUser(user.UserID)
	if err := c.deps.Store.Set(ctx, pets.StatusPath(user.UserID), patch, true); err != nil {
		unlock()
		log.Error("error updating pet state", map[string]any{"err": err.Error(), "state": string(next)})
		return Result{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	effCtx := context.WithoutCancel(ctx)
	c.enqueueEffect(user.UserID, func() { c.runEffects(effCtx, user, updated, flags) })
	unlock()

	log.Info("pet state changed", map[string]any{"from": string(cur.State), "to": string(next)})

	return Result{Record: updated, Previous: cur.State, Changed: true}, nil
}

func (c *Controller) lockUser(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &c.writeMu[h.Sum32()%userStripes]
	mu.Lock()
	return mu.Unlock
}

// enqueueEffect corre fn después de los efectos anteriores del mismo usuario,
// sin bloquear a quien llama. Así el cancel-all de un cambio no pisa el recordatorio del siguiente.
func (c *Controller) enqueueEffect(userID string, fn func()) {
	c.effects.Add(1)

	c.queueMu.Lock()
	q, running := c.queues[userID]
	c.queues[userID] = append(q, fn)
	c.queueMu.Unlock()

	if !running {
		go c.drainEffects(userID)
	}
}

func (c *Controller) drainEffects(userID string) {
	for {
		c.queueMu.Lock()
		q := c.queues[userID]
		if len(q) == 0 {
			delete(c.queues, userID)
			c.queueMu.Unlock()
			return
		}
		fn := q[0]
		c.queues[userID] = q[1:]
		c.queueMu.Unlock()

		fn()
		c.effects.Done()
	}
}

func (c *Controller) goEffect(fn func()) {
	c.effects.Add(1)
	go func() {
		defer c.effects.Done()
		fn()
	}()
}

// runEffects: sonido + notificaciones. Los errores se registran y nunca se propagan.
func (c *Controller) runEffects(ctx context.Context, user auth.Claims, rec pets.Record, flags effectFlags) {
	log := c.deps.Logger.With(map[string]any{"user_id": user.UserID})

	prefs := settings.Defaults()
	if c.deps.Settings != nil {
		if p, err := c.deps.Settings.Get(ctx, user.UserID); err != nil {
			log.Warn("settings lookup failed, using defaults", map[string]any{"err": err.Error()})
		} else {
			prefs = p
		}
	}

	if flags&effectSound != 0 && prefs.SoundsEnabled && c.deps.Player != nil {
		if err := c.deps.Player.PlayOnce(ctx, user.UserID, audio.SoundPop); err != nil {
			log.Warn("sound play error", map[string]any{"err": err.Error()})
		}
	}

	if !prefs.NotificationsEnabled || c.deps.Scheduler == nil || c.deps.Messages == nil {
		return
	}

	if err := c.deps.Scheduler.CancelAll(ctx, user.UserID); err != nil {
		log.Warn("cancel reminders failed", map[string]any{"err": err.Error()})
	}

	n := c.deps.Messages.StateChanged(prefs.Language, rec.Name, rec.State)
	if err := c.deps.Scheduler.SendImmediate(ctx, user.UserID, n); err != nil {
		log.Warn("immediate notification failed", map[string]any{"err": err.Error()})
	}

	if rec.State != mood.StateHappy {
		return
	}

	need := c.opts.Chooser(mood.NeedStates())
	reminder := c.deps.Messages.Reminder(prefs.Language, rec.Name, need)
	if err := c.deps.Scheduler.ScheduleDelayed(ctx, user.UserID, reminder, c.opts.ReminderDelay); err != nil {
		log.Warn("schedule reminder failed", map[string]any{"err": err.Error()})
	}
}
