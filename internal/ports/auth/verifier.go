package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakCredentials    = errors.New("email or password not acceptable")
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Provider es el proveedor de identidad (login/registro/logout).
type Provider interface {
	Register(ctx context.Context, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context, token string) error
}
