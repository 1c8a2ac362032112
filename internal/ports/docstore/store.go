// Package docstore define el contrato del almacén de documentos remoto.
// Los paths son estilo "users/{uid}/pet/status".
package docstore

import (
	"context"
	"errors"
)

var ErrInvalidPath = errors.New("invalid document path")

// Document es el contenido de un documento (campos planos JSON-compatibles).
type Document map[string]any

// Clone hace una copia superficial.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Snapshot es lo que recibe un suscriptor: existe con datos o no existe.
type Snapshot struct {
	Path   string
	Exists bool
	Data   Document
}

// Unsubscribe corta la suscripción. Es idempotente.
type Unsubscribe func()

type Store interface {
	Get(ctx context.Context, path string) (Document, bool, error)
	// Set escribe el documento. Con merge=true solo pisa los campos enviados.
	Set(ctx context.Context, path string, doc Document, merge bool) error
	// Subscribe entrega el snapshot actual de inmediato y luego uno por cada cambio.
	// onChange no debe bloquear; se invoca en orden desde una goroutine propia.
	Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error)
}
