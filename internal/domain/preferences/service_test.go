package preferences

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosie/internal/adapters/storage/memory"
	"rosie/internal/domain/pets"
	"rosie/internal/ports/auth"
	"rosie/internal/ports/notify"
	"rosie/internal/ports/settings"
)

type countingScheduler struct {
	cancels int
}

func (s *countingScheduler) SendImmediate(context.Context, string, notify.Notification) error {
	return nil
}

func (s *countingScheduler) ScheduleDelayed(context.Context, string, notify.Notification, time.Duration) error {
	return nil
}

func (s *countingScheduler) CancelAll(context.Context, string) error {
	s.cancels++
	return nil
}

var user = auth.Claims{UserID: "u1", Email: "ada@example.com"}

func newTestService(t *testing.T) (*Service, *memory.DocStore, *countingScheduler) {
	t.Helper()
	docs := memory.NewDocStore()
	t.Cleanup(docs.Close)
	sched := &countingScheduler{}
	return NewService(memory.NewSettingsStore(), docs, sched, nil), docs, sched
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestService_Get_DefaultsWhenMissing(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Get(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != settings.Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	if _, err := svc.Get(context.Background(), auth.Claims{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestService_Update_PartialAndCancelsReminders(t *testing.T) {
	svc, _, sched := newTestService(t)
	ctx := context.Background()

	got, err := svc.Update(ctx, user, settings.Patch{SoundsEnabled: boolPtr(false), Language: strPtr(" TR ")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.SoundsEnabled || !got.MusicEnabled || got.Language != "tr" {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if sched.cancels != 0 {
		t.Fatalf("no reminders should be cancelled yet")
	}

	got, err = svc.Update(ctx, user, settings.Patch{NotificationsEnabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.NotificationsEnabled || got.Language != "tr" {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if sched.cancels != 1 {
		t.Fatalf("expected reminders cancelled once, got %d", sched.cancels)
	}
}

func TestService_Update_RejectsUnknownLanguage(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), user, settings.Patch{Language: strPtr("de")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_RegisterPush_Granted_StoresTokenAndEmail(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterPush(ctx, user, notify.Registration{Token: "ExponentPushToken[x]", Status: notify.PermissionGranted})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	doc, ok, err := docs.Get(ctx, pets.UserPath(user.UserID))
	if err != nil || !ok {
		t.Fatalf("expected user doc, ok=%v err=%v", ok, err)
	}
	if doc[pets.FieldPushToken] != "ExponentPushToken[x]" || doc[pets.FieldEmail] != user.Email {
		t.Fatalf("unexpected user doc: %+v", doc)
	}

	if _, err := svc.RegisterPush(ctx, user, notify.Registration{Status: notify.PermissionGranted}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty token, got %v", err)
	}
}

func TestService_RegisterPush_Denied_TurnsNotificationsOff(t *testing.T) {
	svc, docs, sched := newTestService(t)
	ctx := context.Background()

	got, err := svc.RegisterPush(ctx, user, notify.Registration{Status: notify.PermissionDenied})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.NotificationsEnabled {
		t.Fatalf("notifications must be off after denial")
	}
	if sched.cancels != 1 {
		t.Fatalf("expected reminders cancelled, got %d", sched.cancels)
	}

	if _, ok, _ := docs.Get(ctx, pets.UserPath(user.UserID)); ok {
		t.Fatalf("no token should be stored on denial")
	}

	stored, _ := svc.Get(ctx, user)
	if stored.NotificationsEnabled {
		t.Fatalf("denial must be persisted")
	}
}
