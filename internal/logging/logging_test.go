package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T, fn func()) []Event {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	fn()

	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("unmarshal log line %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestLoggerEmitsJSON(t *testing.T) {
	events := capture(t, func() {
		New("engine").WithSession("sess-1").Info("stage_start", map[string]interface{}{"step": "role"})
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Component != "engine" || e.Event != "stage_start" || e.Session != "sess-1" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Level != LevelInfo {
		t.Errorf("Level = %q, want info", e.Level)
	}
	if e.Extra["step"] != "role" {
		t.Errorf("Extra[step] = %v, want role", e.Extra["step"])
	}
}

func TestLoggerErrorField(t *testing.T) {
	events := capture(t, func() {
		New("backend").Error("generate", nil, errors.New("boom"))
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Error != "boom" {
		t.Errorf("Error = %q, want boom", events[0].Error)
	}
	if events[0].Level != LevelError {
		t.Errorf("Level = %q, want error", events[0].Level)
	}
}

func TestStageEvent(t *testing.T) {
	events := capture(t, func() {
		StageEvent("sess-1", "objective", true, 20*time.Millisecond, nil)
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Component != "engine" || e.Event != "stage" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Extra["accepted"] != true {
		t.Errorf("Extra[accepted] = %v, want true", e.Extra["accepted"])
	}
}

func TestRecoveryHandlerWrapError(t *testing.T) {
	capture(t, func() {
		h := NewRecoveryHandler("wizard")
		err := h.WrapError(func() error {
			panic("kaboom")
		})
		if err == nil || !strings.Contains(err.Error(), "kaboom") {
			t.Errorf("WrapError() = %v, want panic error", err)
		}
	})
}

func TestRecoveryHandlerPassthrough(t *testing.T) {
	h := NewRecoveryHandler("wizard")
	want := errors.New("normal failure")
	if err := h.WrapError(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("WrapError() = %v, want %v", err, want)
	}
}
