package mood

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

var (
	ErrUnknownState  = errors.New("unknown state")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownPolicy = errors.New("unknown policy")
)

// State es el humor actual de la mascota.
// @Enum happy, bored, hungry, tired
type State string

const (
	StateHappy  State = "happy"
	StateBored  State = "bored"
	StateHungry State = "hungry"
	StateTired  State = "tired"
)

// Action es una acción de remedio disparada por el usuario.
// @Enum feed, play, rest
type Action string

const (
	ActionFeed Action = "feed"
	ActionPlay Action = "play"
	ActionRest Action = "rest"
)

// Policy decide cómo una acción resuelve el humor actual.
type Policy string

const (
	// PolicySimple: cualquier acción deja a la mascota feliz.
	PolicySimple Policy = "simple"
	// PolicyRefined: la acción solo funciona si remedia el humor actual.
	PolicyRefined Policy = "refined"
)

// IdleThreshold es el tiempo sin interacción a partir del cual una mascota feliz decae.
const IdleThreshold = 30 * time.Minute

// Chooser elige uno de los estados candidatos. Se inyecta para tests deterministas.
type Chooser func(options []State) State

func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrUnknownState
	}
	return st, nil
}

func (s State) Valid() bool {
	switch s {
	case StateHappy, StateBored, StateHungry, StateTired:
		return true
	default:
		return false
	}
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if a.Remedies() == "" {
		return "", ErrUnknownAction
	}
	return a, nil
}

// Remedies devuelve el humor negativo que la acción resuelve ("" si no es válida).
func (a Action) Remedies() State {
	switch a {
	case ActionFeed:
		return StateHungry
	case ActionPlay:
		return StateBored
	case ActionRest:
		return StateTired
	default:
		return ""
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySimple, nil
	case PolicySimple, PolicyRefined:
		return p, nil
	default:
		return "", ErrUnknownPolicy
	}
}

// DefaultState es el estado con el que se crea un registro nuevo.
func DefaultState(p Policy) State {
	if p == PolicyRefined {
		return StateBored
	}
	return StateHappy
}

// NeedStates devuelve los estados negativos en orden estable.
func NeedStates() []State {
	return []State{StateHungry, StateBored, StateTired}
}

// Next calcula el siguiente estado y si hubo cambio.
func Next(p Policy, current State, a Action) (State, bool) {
	remedy := a.Remedies()
	if remedy == "" {
		return current, false
	}
	if p == PolicyRefined && current != remedy {
		return current, false
	}
	if current == StateHappy {
		return current, false
	}
	return StateHappy, true
}

// Decay aplica la degradación pasiva: feliz + inactivo >= threshold => necesidad aleatoria.
func Decay(current State, last, now time.Time, threshold time.Duration, choose Chooser) (State, bool) {
	if current != StateHappy {
		return current, false
	}
	if now.Sub(last) < threshold {
		return current, false
	}
	if choose == nil {
		choose = UniformChooser(nil)
	}
	return choose(NeedStates()), true
}

// UniformChooser elige de forma uniforme. Con r == nil usa el generador global.
func UniformChooser(r *rand.Rand) Chooser {
	return func(options []State) State {
		if len(options) == 0 {
			return ""
		}
		if r == nil {
			return options[rand.IntN(len(options))]
		}
		return options[r.IntN(len(options))]
	}
}

// FixedChooser siempre devuelve el mismo estado (si está entre las opciones).
func FixedChooser(s State) Chooser {
	return func(options []State) State {
		for _, o := range options {
			if o == s {
				return s
			}
		}
		if len(options) > 0 {
			return options[0]
		}
		return ""
	}
}
