package plansfeatures

import (
	"context"
	"errors"
	"strings"
)

// Resolver implementa capabilities.Resolver sobre plans-features.
// Con allowAll todo devuelve true sin llamar a upstream (modo dev).
type Resolver struct {
	client   *Client
	allowAll bool
}

func NewResolver(client *Client, allowAll bool) *Resolver {
	return &Resolver{client: client, allowAll: allowAll}
}

func (r *Resolver) Has(ctx context.Context, userID string, capability string) (bool, error) {
	capability = strings.TrimSpace(capability)
	if capability == "" {
		return false, errors.New("capability required")
	}
	if r == nil {
		return false, ErrPlansNotConfigured
	}
	if r.allowAll {
		return true, nil
	}
	if r.client == nil || !r.client.IsConfigured() {
		return false, ErrPlansNotConfigured
	}

	resp, err := r.client.GetCapabilities(ctx, userID)
	if err != nil {
		return false, err
	}
	return resp.Capabilities[capability], nil
}
