// Package identitytoolkit habla con un proveedor de identidad externo compatible con la API
// REST de Identity Toolkit (signUp / signInWithPassword / lookup).
package identitytoolkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rosie/internal/platform/httpclient"
	"rosie/internal/ports/auth"
)

var (
	ErrIdentityNotConfigured = errors.New("identity provider not configured")
	ErrIdentityUpstream      = errors.New("identity provider upstream error")
)

const DefaultBaseURL = "https://identitytoolkit.googleapis.com"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implementa auth.Provider y auth.AuthVerifier contra el proveedor remoto.
type Client struct {
	apiKey string
	http   *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{apiKey: strings.TrimSpace(cfg.APIKey), http: hc}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != "" && c.http != nil
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type sessionResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

func (c *Client) Register(ctx context.Context, email, password string) (auth.Session, error) {
	return c.credentials(ctx, "/v1/accounts:signUp", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	return c.credentials(ctx, "/v1/accounts:signInWithPassword", email, password)
}

// Logout no tiene contraparte remota: el cliente descarta el token.
func (c *Client) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return auth.ErrInvalidToken
	}
	return nil
}

func (c *Client) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrIdentityNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	var out struct {
		Users []struct {
			LocalID string `json:"localId"`
			Email   string `json:"email"`
		} `json:"users"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, c.endpoint("/v1/accounts:lookup"), nil, map[string]string{"idToken": token}, &out); err != nil {
		return auth.Claims{}, mapError(err)
	}
	if len(out.Users) == 0 || strings.TrimSpace(out.Users[0].LocalID) == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	return auth.Claims{
		UserID: strings.TrimSpace(out.Users[0].LocalID),
		Email:  strings.TrimSpace(out.Users[0].Email),
	}, nil
}

func (c *Client) credentials(ctx context.Context, path, email, password string) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrIdentityNotConfigured
	}

	in := credentialsRequest{Email: strings.TrimSpace(email), Password: password, ReturnSecureToken: true}
	var out sessionResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.endpoint(path), nil, in, &out); err != nil {
		return auth.Session{}, mapError(err)
	}
	if out.LocalID == "" || out.IDToken == "" {
		return auth.Session{}, fmt.Errorf("%w: response missing localId/idToken", ErrIdentityUpstream)
	}

	return auth.Session{
		Claims:      auth.Claims{UserID: out.LocalID, Email: out.Email},
		AccessToken: out.IDToken,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return path + "?key=" + url.QueryEscape(c.apiKey)
}

// mapError traduce los códigos del proveedor ("EMAIL_EXISTS", ...) a errores del puerto.
func mapError(err error) error {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		return fmt.Errorf("%w: %v", ErrIdentityUpstream, err)
	}
	if he.Retryable() {
		return fmt.Errorf("%w: status=%d", ErrIdentityUpstream, he.StatusCode)
	}

	switch {
	case strings.Contains(he.Body, "EMAIL_EXISTS"):
		return auth.ErrAlreadyRegistered
	case strings.Contains(he.Body, "INVALID_ID_TOKEN"), strings.Contains(he.Body, "TOKEN_EXPIRED"), strings.Contains(he.Body, "USER_NOT_FOUND"):
		return auth.ErrInvalidToken
	case strings.Contains(he.Body, "INVALID_PASSWORD"),
		strings.Contains(he.Body, "EMAIL_NOT_FOUND"),
		strings.Contains(he.Body, "INVALID_LOGIN_CREDENTIALS"):
		return auth.ErrInvalidCredentials
	case strings.Contains(he.Body, "INVALID_EMAIL"), strings.Contains(he.Body, "WEAK_PASSWORD"):
		return auth.ErrWeakCredentials
	}
	return fmt.Errorf("%w: status=%d", ErrIdentityUpstream, he.StatusCode)
}
