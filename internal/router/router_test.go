package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rosie/internal/adapters/auth/local"
	"rosie/internal/adapters/notify/logsender"
	"rosie/internal/adapters/notify/scheduler"
	mem "rosie/internal/adapters/storage/memory"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/notify"
	"rosie/internal/router"
)

type petBody struct {
	Name            string `json:"name"`
	State           string `json:"state"`
	LastInteraction int64  `json:"last_interaction"`
	UserEmail       string `json:"user_email"`
}

type actionBody struct {
	Pet      petBody `json:"pet"`
	Previous string  `json:"previous"`
	Changed  bool    `json:"changed"`
}

func TestHTTP_EndToEnd_PetActionsAndReminders(t *testing.T) {
	sender := &countingSender{next: logsender.New(logger.Nop())}
	sched := scheduler.New(sender, logger.Nop())
	defer sched.Close()

	ts := httptest.NewServer(router.NewRouter(router.Options{Scheduler: sched, DevMenu: true}))
	defer ts.Close()

	userID := "user-1"

	// 1) Sin usuario => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/pet", "", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", st)
		}
	}

	// 2) Primer GET crea a Rosie feliz
	{
		st, body := doReq(t, ts.URL, "GET", "/pet", userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		var p petBody
		mustUnmarshal(t, body, &p)
		if p.Name != "Rosie" || p.State != "happy" {
			t.Fatalf("unexpected default pet: %+v", p)
		}
	}

	// 3) Menú dev: forzar hambre
	{
		st, body := doReq(t, ts.URL, "PUT", "/pet/state", userID, "", map[string]any{"state": "hungry"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 force state, got %d body=%s", st, string(body))
		}
	}
	// la notificación inmediata sale después del cancel-all de este cambio
	waitFor(t, func() bool { return sender.delivered.Load() == 1 })

	// 4) Alimentar => feliz + recordatorio programado
	{
		st, body := doReq(t, ts.URL, "POST", "/pet/actions/feed", userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 feed, got %d body=%s", st, string(body))
		}
		var res actionBody
		mustUnmarshal(t, body, &res)
		if !res.Changed || res.Previous != "hungry" || res.Pet.State != "happy" {
			t.Fatalf("unexpected feed result: %+v", res)
		}
	}
	waitFor(t, func() bool { return sched.Pending(userID) == 1 })

	// 5) Acción desconocida => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/pet/actions/dance", userID, "", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 unknown action, got %d", st)
		}
	}

	// 6) Apagar notificaciones cancela el recordatorio
	{
		st, body := doReq(t, ts.URL, "PATCH", "/me/settings", userID, "", map[string]any{"notifications_enabled": false})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch settings, got %d body=%s", st, string(body))
		}
		if sched.Pending(userID) != 0 {
			t.Fatalf("expected reminders cancelled, pending=%d", sched.Pending(userID))
		}
	}
}

func TestHTTP_EndToEnd_SettingsAndCharacters(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	userID := "user-2"

	{
		st, body := doReq(t, ts.URL, "GET", "/me/settings", userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 settings, got %d body=%s", st, string(body))
		}
		var s map[string]any
		mustUnmarshal(t, body, &s)
		if s["notifications_enabled"] != true || s["language"] != "en" {
			t.Fatalf("unexpected default settings: %v", s)
		}
	}

	// push denegado => notificaciones apagadas
	{
		st, body := doReq(t, ts.URL, "PUT", "/me/push-token", userID, "", map[string]any{"status": "denied"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 push-token, got %d body=%s", st, string(body))
		}
		var s map[string]any
		mustUnmarshal(t, body, &s)
		if s["notifications_enabled"] != false {
			t.Fatalf("expected notifications disabled after denial: %v", s)
		}
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/characters", userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 characters, got %d body=%s", st, string(body))
		}
		var list []map[string]any
		mustUnmarshal(t, body, &list)
		if len(list) != 2 {
			t.Fatalf("expected 2 characters, got %d", len(list))
		}
	}

	{
		st, body := doReq(t, ts.URL, "PUT", "/characters/selected", userID, "", map[string]any{"id": "luna"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 select, got %d body=%s", st, string(body))
		}
		var c map[string]any
		mustUnmarshal(t, body, &c)
		if c["id"] != "luna" || c["selected"] != true {
			t.Fatalf("unexpected selection: %v", c)
		}
	}

	// sin menú dev no existe /pet/state
	{
		st, _ := doReq(t, ts.URL, "PUT", "/pet/state", userID, "", map[string]any{"state": "tired"})
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 without dev menu, got %d", st)
		}
	}
}

func TestHTTP_EndToEnd_LocalAuth(t *testing.T) {
	store := mem.NewDocStore()
	defer store.Close()

	provider, err := local.New(store, local.Config{Secret: []byte("0123456789abcdef")})
	if err != nil {
		t.Fatalf("local provider: %v", err)
	}

	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: provider,
		AuthProvider: provider,
		Store:        store,
	}))
	defer ts.Close()

	creds := map[string]any{"email": "ada@example.com", "password": "secret123"}

	var token string
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/register", "", "", creds)
		if st != http.StatusCreated {
			t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/register", "", "", creds)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate register, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/login", "", "", creds)
		if st != http.StatusOK {
			t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
		}
		var sess map[string]string
		mustUnmarshal(t, body, &sess)
		token = sess["access_token"]
		if token == "" || sess["token_type"] != "Bearer" {
			t.Fatalf("unexpected session: %v", sess)
		}
	}

	// el header de debug no sirve con verifier
	{
		st, _ := doReq(t, ts.URL, "GET", "/pet", "someone", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 with debug header, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pet", "", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		var p petBody
		mustUnmarshal(t, body, &p)
		if p.UserEmail != "ada@example.com" {
			t.Fatalf("expected pet stamped with email, got %+v", p)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/logout", "", token, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 logout, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/pet", "", token, nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout, got %d", st)
		}
	}
}

func TestHTTP_HealthAndSwagger(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", "", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health: %d %s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/swagger/doc.json", "", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "Rosie API") {
		t.Fatalf("unexpected swagger doc: %d", st)
	}
}

type countingSender struct {
	next      notify.Sender
	delivered atomic.Int32
}

func (s *countingSender) Deliver(ctx context.Context, userID string, n notify.Notification) error {
	s.delivered.Add(1)
	return s.next.Deliver(ctx, userID, n)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func mustUnmarshal(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("json unmarshal: %v body=%s", err, string(b))
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, token string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
