package characters

import (
	"context"
	"errors"
	"testing"

	"rosie/internal/adapters/assets"
	"rosie/internal/adapters/storage/memory"
	"rosie/internal/ports/auth"
)

type stubCaps map[string]bool

func (s stubCaps) Has(ctx context.Context, userID, capability string) (bool, error) {
	if s == nil {
		return false, errors.New("not configured")
	}
	return s[userID+"|"+capability], nil
}

var user = auth.Claims{UserID: "u1"}

func newTestService(t *testing.T, caps stubCaps) *Service {
	t.Helper()
	docs := memory.NewDocStore()
	t.Cleanup(docs.Close)
	return NewService(caps, assets.NewStatic("https://cdn.example.com"), docs, nil)
}

func TestService_List_DefaultRosieSelectedLunaLocked(t *testing.T) {
	svc := newTestService(t, stubCaps{})

	items, err := svc.List(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(items))
	}
	if items[0].ID != "rosie" || !items[0].Selected || items[0].Locked {
		t.Fatalf("unexpected rosie entry: %+v", items[0])
	}
	if items[1].ID != "luna" || items[1].Selected || !items[1].Locked {
		t.Fatalf("unexpected luna entry: %+v", items[1])
	}
	if items[0].ImageURL != "https://cdn.example.com/images/rosie.png" {
		t.Fatalf("unexpected image url: %s", items[0].ImageURL)
	}
}

func TestService_Select_LockedAndUnlocked(t *testing.T) {
	ctx := context.Background()

	locked := newTestService(t, stubCaps{})
	if _, err := locked.Select(ctx, user, "luna"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	svc := newTestService(t, stubCaps{"u1|characters:luna": true})
	e, err := svc.Select(ctx, user, "Luna")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !e.Selected || e.Locked {
		t.Fatalf("unexpected entry: %+v", e)
	}

	items, _ := svc.List(ctx, user)
	if items[0].Selected || !items[1].Selected {
		t.Fatalf("selection not persisted: %+v", items)
	}

	if _, err := svc.Select(ctx, user, "mochi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ResolverErrorKeepsLocked(t *testing.T) {
	svc := newTestService(t, nil)

	items, err := svc.List(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !items[1].Locked {
		t.Fatalf("luna must stay locked when capabilities fail")
	}
}
