package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
)

type recordingArchive struct {
	saved []Capture
	err   error
}

func (r *recordingArchive) Archive(_ context.Context, c Capture) error {
	r.saved = append(r.saved, c)
	return r.err
}

func TestManagerSave(t *testing.T) {
	ctx := context.Background()
	arch := &recordingArchive{err: errors.New("bucket offline")}
	m := NewManager(newTestStore(t, 0), arch)
	events, cancel := m.Subscribe(4)
	defer cancel()

	c, v, err := m.Save(ctx, KindTools, ` {"type":"agent","name":"Planner","config":{"tools":[{"name":"a"}]}} `, "paste")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if c.ID == "" || c.Count != 1 || c.AgentName != "Planner" || v.Warning != "" {
		t.Errorf("capture = %+v, validation = %+v", c, v)
	}
	if c.Payload[0] != '{' {
		t.Errorf("payload not trimmed: %q", c.Payload)
	}
	if len(arch.saved) != 1 {
		t.Errorf("archive calls = %d, want 1 despite its error", len(arch.saved))
	}
	ev := <-events
	if ev.Type != EventSaved || ev.Capture == nil || ev.Capture.ID != c.ID {
		t.Errorf("event = %+v", ev)
	}
}

func TestManagerSaveRejectsInvalid(t *testing.T) {
	m := NewManager(newTestStore(t, 0), nil)
	if _, _, err := m.Save(context.Background(), KindMessages, "", "paste"); !errors.Is(err, extract.ErrEmptyPaste) {
		t.Errorf("err = %v, want ErrEmptyPaste", err)
	}
	_, _, err := m.Save(context.Background(), KindMessages, `{"a":1}`, "paste")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want *ValidationError", err)
	}
	if _, err := m.Latest(context.Background(), KindMessages); !errors.Is(err, ErrNotFound) {
		t.Errorf("invalid payload was stored: %v", err)
	}
}

func TestManagerPrefillEvents(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newTestStore(t, 0), nil)
	events, cancel := m.Subscribe(8)
	defer cancel()

	if _, _, err := m.Save(ctx, KindMessages, `[{"role":"user","content":"hi"}]`, "capture"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := m.RequestPrefill(ctx); err != nil {
		t.Fatalf("RequestPrefill failed: %v", err)
	}
	p, ok, err := m.ConsumePrefill(ctx)
	if err != nil || !ok || p.Messages == nil {
		t.Fatalf("ConsumePrefill = %+v, %v, %v", p, ok, err)
	}

	want := []EventType{EventSaved, EventPrefillPending, EventPrefilled}
	for _, w := range want {
		if ev := <-events; ev.Type != w {
			t.Errorf("event = %s, want %s", ev.Type, w)
		}
	}
}

func TestManagerCloseClosesSubscriptions(t *testing.T) {
	m := NewManager(newTestStore(t, 0), nil)
	events, cancel := m.Subscribe(1)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, open := <-events; open {
		t.Error("subscription still open after Close")
	}
	cancel()
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Messages"); err != nil || k != KindMessages {
		t.Errorf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("agents"); err == nil {
		t.Error("ParseKind(agents) succeeded")
	}
}
