package capabilities

import "context"

// Resolver responde si un usuario tiene habilitada una capability (p.ej. "characters:luna").
type Resolver interface {
	Has(ctx context.Context, userID string, capability string) (bool, error)
}
