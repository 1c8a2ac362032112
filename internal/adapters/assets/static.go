// Package assets resuelve URLs de sonidos e imágenes: base URL fija (CDN / dev) o S3 presignado.
package assets

import (
	"context"
	"net/url"
	"strings"

	"rosie/internal/ports/assets"
)

type Static struct {
	baseURL string
}

func NewStatic(baseURL string) *Static {
	return &Static{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (s *Static) URL(ctx context.Context, key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.baseURL == "" {
		return "/assets/" + key, nil
	}
	return s.baseURL + "/" + key, nil
}

func cleanKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", assets.ErrUnknownAsset
	}
	return (&url.URL{Path: key}).EscapedPath(), nil
}
