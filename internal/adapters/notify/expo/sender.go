// Package expo entrega notificaciones push vía la API de Expo, leyendo el push token
// del documento users/{uid}.
package expo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rosie/internal/domain/pets"
	"rosie/internal/platform/httpclient"
	"rosie/internal/ports/docstore"
	"rosie/internal/ports/notify"
)

const DefaultPushURL = "https://exp.host/--/api/v2/push/send"

var (
	ErrExpoNotConfigured = errors.New("expo sender not configured")
	ErrNoPushToken       = errors.New("user has no push token")
	ErrPushRejected      = errors.New("expo rejected push")
	ErrExpoUpstream      = errors.New("expo upstream error")
)

type Config struct {
	PushURL     string
	AccessToken string // opcional (enhanced security de Expo)
	Timeout     time.Duration
}

type Sender struct {
	pushURL     string
	accessToken string
	http        *httpclient.Client
	store       docstore.Store
}

func NewSender(cfg Config, store docstore.Store) *Sender {
	u := strings.TrimSpace(cfg.PushURL)
	if u == "" {
		u = DefaultPushURL
	}
	return &Sender{
		pushURL:     u,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		http:        httpclient.New(cfg.Timeout),
		store:       store,
	}
}

func (s *Sender) IsConfigured() bool {
	return s != nil && s.store != nil && s.http != nil
}

type pushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

func (s *Sender) Deliver(ctx context.Context, userID string, n notify.Notification) error {
	if !s.IsConfigured() {
		return ErrExpoNotConfigured
	}

	token, err := s.pushToken(ctx, userID)
	if err != nil {
		return err
	}

	headers := map[string]string{}
	if s.accessToken != "" {
		headers["Authorization"] = "Bearer " + s.accessToken
	}

	msgs := []pushMessage{{
		To:    token,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
		Sound: "default",
	}}

	var out pushResponse
	if err := s.http.DoJSON(ctx, "POST", s.pushURL, headers, msgs, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrExpoUpstream, err)
	}

	for _, t := range out.Data {
		if t.Status != "ok" {
			reason := t.Details.Error
			if reason == "" {
				reason = t.Message
			}
			return fmt.Errorf("%w: %s", ErrPushRejected, reason)
		}
	}
	return nil
}

func (s *Sender) pushToken(ctx context.Context, userID string) (string, error) {
	doc, ok, err := s.store.Get(ctx, pets.UserPath(userID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoPushToken
	}
	token, _ := doc[pets.FieldPushToken].(string)
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrNoPushToken
	}
	return token, nil
}
