package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format Format, lvl Level) (*StdLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Options{Level: lvl, Format: format, App: "rosie", Writer: &buf}).(*StdLogger)
	l.now = func() time.Time { return time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC) }
	return l, &buf
}

func TestStdLogger_TextHeaderThenSortedFields(t *testing.T) {
	l, buf := newTestLogger(FormatText, Info)

	l.Debug("hidden", nil)
	l.With(map[string]any{"user_id": "u1"}).Warn("sound play error", map[string]any{"err": "boom"})

	out := strings.TrimSpace(buf.String())
	want := `ts=2025-12-22T10:00:00Z level=warn msg="sound play error" app=rosie err=boom user_id=u1`
	if out != want {
		t.Fatalf("unexpected output\n got: %s\nwant: %s", out, want)
	}
}

func TestStdLogger_JSON(t *testing.T) {
	l, buf := newTestLogger(FormatJSON, Debug)
	l.Error("persist failed", map[string]any{"state": "happy", "": "ignored", "err": errors.New("offline")})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json line: %v (%s)", err, buf.String())
	}
	if entry["level"] != "error" || entry["state"] != "happy" || entry["app"] != "rosie" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if entry["err"] != "offline" {
		t.Fatalf("errors must be logged as text, got %#v", entry["err"])
	}
	if _, ok := entry[""]; ok {
		t.Fatalf("empty keys must be dropped")
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if ParseLevel("WARNING") != Warn || ParseLevel("nope") != Info || ParseLevel("debug") != Debug {
		t.Fatalf("unexpected level parsing")
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("") != FormatText {
		t.Fatalf("unexpected format parsing")
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With(map[string]any{"k": "v"})
	l.Info("x", nil)
	l.Error("y", map[string]any{"a": 1})
}
