package pets

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"rosie/internal/domain/mood"
	"rosie/internal/ports/docstore"
)

var (
	ErrInvalidRecord = errors.New("invalid pet record")
)

// DefaultName es el nombre con el que nace la mascota.
const DefaultName = "Rosie"

// Campos del documento de estado (compatibles con la app móvil).
const (
	FieldName            = "name"
	FieldState           = "state"
	FieldLastInteraction = "lastInteraction"
	FieldUserEmail       = "userEmail"

	FieldPushToken = "pushToken"
	FieldEmail     = "email"
)

// Record es el estado persistido de la mascota de un usuario.
type Record struct {
	Name            string
	State           mood.State
	LastInteraction int64 // epoch ms
	UserEmail       string
}

// NewDefault construye el registro inicial.
func NewDefault(name string, state mood.State, now time.Time, email string) Record {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return Record{
		Name:            strings.TrimSpace(name),
		State:           state,
		LastInteraction: now.UnixMilli(),
		UserEmail:       strings.TrimSpace(email),
	}
}

func (r Record) LastInteractionTime() time.Time {
	return time.UnixMilli(r.LastInteraction)
}

// StatusPath es el documento del estado de la mascota.
func StatusPath(userID string) string {
	return "users/" + userID + "/pet/status"
}

// UserPath es el documento raíz del usuario (push token + email).
func UserPath(userID string) string {
	return "users/" + userID
}

func (r Record) ToDocument() docstore.Document {
	doc := docstore.Document{
		FieldName:            r.Name,
		FieldState:           string(r.State),
		FieldLastInteraction: r.LastInteraction,
	}
	if r.UserEmail != "" {
		doc[FieldUserEmail] = r.UserEmail
	}
	return doc
}

// FromDocument valida el documento: nunca se expone un state fuera de los cuatro valores.
func FromDocument(doc docstore.Document) (Record, error) {
	var r Record

	name, _ := doc[FieldName].(string)
	r.Name = name
	if r.Name == "" {
		r.Name = DefaultName
	}

	raw, _ := doc[FieldState].(string)
	st, err := mood.ParseState(raw)
	if err != nil {
		return Record{}, fmt.Errorf("%w: state=%q", ErrInvalidRecord, raw)
	}
	r.State = st

	ms, ok := toMillis(doc[FieldLastInteraction])
	if !ok {
		return Record{}, fmt.Errorf("%w: lastInteraction=%v", ErrInvalidRecord, doc[FieldLastInteraction])
	}
	r.LastInteraction = ms

	r.UserEmail, _ = doc[FieldUserEmail].(string)
	return r, nil
}

// toMillis acepta los tipos numéricos que devuelven los distintos stores (JSON => float64).
func toMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}
