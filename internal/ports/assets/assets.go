package assets

import (
	"context"
	"errors"
)

var ErrUnknownAsset = errors.New("unknown asset")

// Resolver traduce una key de asset (p.ej. "sounds/pop.mp3") a una URL que el cliente puede descargar.
type Resolver interface {
	URL(ctx context.Context, key string) (string, error)
}
