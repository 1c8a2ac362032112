// Package local es el proveedor de identidad embebido: cuentas en el docstore,
// contraseñas con bcrypt y access tokens JWT (HS256).
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rosie/internal/ports/auth"
	"rosie/internal/ports/docstore"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	minPasswordLen  = 6
)

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Provider implementa auth.Provider y auth.AuthVerifier.
type Provider struct {
	store  docstore.Store
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time

	// crea cuentas de a una: el docstore no tiene create-if-absent
	registerMu sync.Mutex

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiración
}

func New(store docstore.Store, cfg Config) (*Provider, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "rosie"
	}
	return &Provider{
		store:   store,
		secret:  cfg.Secret,
		ttl:     ttl,
		issuer:  issuer,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

func accountPath(email string) string {
	return "accounts/" + email
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, "/ ") {
		return "", auth.ErrWeakCredentials
	}
	return email, nil
}

func (p *Provider) Register(ctx context.Context, email, password string) (auth.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return auth.Session{}, err
	}
	if len(password) < minPasswordLen {
		return auth.Session{}, fmt.Errorf("%w: password too short", auth.ErrWeakCredentials)
	}

	p.registerMu.Lock()
	defer p.registerMu.Unlock()

	_, exists, err := p.store.Get(ctx, accountPath(email))
	if err != nil {
		return auth.Session{}, err
	}
	if exists {
		return auth.Session{}, auth.ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.Session{}, err
	}

	uid := uuid.NewString()
	account := docstore.Document{
		"uid":          uid,
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    p.now().UnixMilli(),
	}
	if err := p.store.Set(ctx, accountPath(email), account, false); err != nil {
		return auth.Session{}, err
	}
	if err := p.store.Set(ctx, "users/"+uid, docstore.Document{"email": email}, true); err != nil {
		return auth.Session{}, err
	}

	return p.session(uid, email)
}

func (p *Provider) Login(ctx context.Context, email, password string) (auth.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	doc, ok, err := p.store.Get(ctx, accountPath(email))
	if err != nil {
		return auth.Session{}, err
	}
	if !ok {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	hash, _ := doc["passwordHash"].(string)
	uid, _ := doc["uid"].(string)
	if hash == "" || uid == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	return p.session(uid, email)
}

// Logout revoca el token hasta que expire.
func (p *Provider) Logout(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for jti, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, jti)
		}
	}
	p.revoked[c.ID] = c.ExpiresAt.Time
	return nil
}

func (p *Provider) Verify(ctx context.Context, token string) (auth.Claims, error) {
	c, err := p.parse(token)
	if err != nil {
		return auth.Claims{}, err
	}

	p.mu.Lock()
	_, revoked := p.revoked[c.ID]
	p.mu.Unlock()
	if revoked {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	return auth.Claims{UserID: c.Subject, Email: c.Email}, nil
}

func (p *Provider) session(uid, email string) (auth.Session, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Email: email,
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return auth.Session{}, err
	}

	return auth.Session{
		Claims:      auth.Claims{UserID: uid, Email: email},
		AccessToken: signed,
	}, nil
}

func (p *Provider) parse(tokenString string) (*tokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, auth.ErrInvalidToken
	}

	c := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, auth.ErrInvalidToken
	}
	if c.Subject == "" || c.ExpiresAt == nil {
		return nil, auth.ErrInvalidToken
	}
	return c, nil
}
