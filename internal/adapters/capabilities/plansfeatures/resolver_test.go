package plansfeatures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Has(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("user_id") == "premium" {
			_, _ = w.Write([]byte(`{"capabilities":{"characters:luna":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k1"})
	require.NoError(t, err)
	r := NewResolver(c, false)
	ctx := context.Background()

	ok, err := r.Has(ctx, "premium", "characters:luna")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Has(ctx, "free", "characters:luna")
	require.NoError(t, err)
	assert.False(t, ok)

	bad, err := NewClient(Config{BaseURL: srv.URL, APIKey: "nope"})
	require.NoError(t, err)
	_, err = NewResolver(bad, false).Has(ctx, "premium", "characters:luna")
	assert.ErrorIs(t, err, ErrPlansUnauthorized)
}

func TestResolver_NotConfiguredAndAllowAll(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = NewResolver(c, false).Has(ctx, "u1", "characters:luna")
	assert.ErrorIs(t, err, ErrPlansNotConfigured)

	ok, err := NewResolver(c, true).Has(ctx, "u1", "characters:luna")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = NewResolver(c, true).Has(ctx, "u1", " ")
	assert.Error(t, err)
}
