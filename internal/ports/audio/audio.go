package audio

import "context"

// Sound identifica un recurso de audio.
type Sound string

const (
	SoundPop   Sound = "sounds/pop.mp3"
	SoundMusic Sound = "sounds/background.mp3"
)

// Handle es un recurso de audio en reproducción. Stop lo libera.
type Handle interface {
	Stop() error
}

type Player interface {
	// PlayOnce es fire-and-forget; el recurso se libera al terminar.
	PlayOnce(ctx context.Context, userID string, s Sound) error
	// Loop reproduce en bucle hasta Stop.
	Loop(ctx context.Context, userID string, s Sound) (Handle, error)
}

type CueKind string

const (
	CuePlay CueKind = "play"
	CueLoop CueKind = "loop"
	CueStop CueKind = "stop"
)

// Cue es la orden de reproducción que recibe un cliente conectado.
type Cue struct {
	Kind  CueKind `json:"kind"`
	ID    string  `json:"id"`
	Sound string  `json:"sound"`
	URL   string  `json:"url,omitempty"`
}

// CueSource entrega los cues de un usuario a un cliente; detach es idempotente.
type CueSource interface {
	Attach(userID string) (cues <-chan Cue, detach func())
}
