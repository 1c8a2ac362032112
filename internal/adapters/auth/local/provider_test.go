package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosie/internal/adapters/storage/memory"
	"rosie/internal/ports/auth"
)

func newProvider(t *testing.T) (*Provider, *memory.DocStore) {
	t.Helper()
	st := memory.NewDocStore()
	t.Cleanup(st.Close)
	p, err := New(st, Config{Secret: []byte("test-secret"), TokenTTL: time.Hour})
	require.NoError(t, err)
	return p, st
}

func TestProvider_RegisterLoginVerify(t *testing.T) {
	p, st := newProvider(t)
	ctx := context.Background()

	sess, err := p.Register(ctx, " Ada@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.Claims.Email)
	assert.NotEmpty(t, sess.Claims.UserID)
	assert.NotEmpty(t, sess.AccessToken)

	user, ok, err := st.Get(ctx, "users/"+sess.Claims.UserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])

	login, err := p.Login(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, sess.Claims.UserID, login.Claims.UserID)

	claims, err := p.Verify(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.Claims, claims)
}

func TestProvider_RegisterTwice(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)

	_, err = p.Register(ctx, "ADA@example.com", "other-pass")
	assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)
}

func TestProvider_RegisterValidation(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "not-an-email", "secret123")
	assert.ErrorIs(t, err, auth.ErrWeakCredentials)

	_, err = p.Register(ctx, "ada@example.com", "123")
	assert.ErrorIs(t, err, auth.ErrWeakCredentials)
}

func TestProvider_LoginWrongPassword(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)

	_, err = p.Login(ctx, "ada@example.com", "nope-nope")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = p.Login(ctx, "ghost@example.com", "secret123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestProvider_LogoutRevokes(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	sess, err := p.Register(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.Logout(ctx, sess.AccessToken))

	_, err = p.Verify(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestProvider_VerifyRejectsExpiredAndForeign(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	sess, err := p.Register(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.Verify(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, _ := newProvider(t)
	other.secret = []byte("another-secret")
	p.now = time.Now
	_, err = other.Verify(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = p.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(memory.NewDocStore(), Config{})
	assert.Error(t, err)
}
