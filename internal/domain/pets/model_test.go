package pets

import (
	"errors"
	"testing"
	"time"

	"rosie/internal/domain/mood"
	"rosie/internal/ports/docstore"
)

func TestRecord_DocumentRoundTrip(t *testing.T) {
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	r := NewDefault("", mood.StateHappy, now, " a@b.c ")

	if r.Name != DefaultName {
		t.Fatalf("expected default name %q, got %q", DefaultName, r.Name)
	}

	got, err := FromDocument(r.ToDocument())
	if err != nil {
		t.Fatalf("FromDocument error: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %#v vs %#v", got, r)
	}
	if !got.LastInteractionTime().Equal(now) {
		t.Fatalf("expected last interaction %v, got %v", now, got.LastInteractionTime())
	}
}

func TestFromDocument_AcceptsJSONNumbers(t *testing.T) {
	got, err := FromDocument(docstore.Document{
		"name":            "Rosie",
		"state":           "tired",
		"lastInteraction": float64(1734861600000),
	})
	if err != nil {
		t.Fatalf("FromDocument error: %v", err)
	}
	if got.State != mood.StateTired || got.LastInteraction != 1734861600000 {
		t.Fatalf("unexpected record %#v", got)
	}
}

func TestFromDocument_RejectsUnknownState(t *testing.T) {
	_, err := FromDocument(docstore.Document{"name": "Rosie", "state": "sleepy"})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestPaths(t *testing.T) {
	if StatusPath("u1") != "users/u1/pet/status" {
		t.Fatalf("unexpected status path %s", StatusPath("u1"))
	}
	if UserPath("u1") != "users/u1" {
		t.Fatalf("unexpected user path %s", UserPath("u1"))
	}
}
