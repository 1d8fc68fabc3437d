package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
)

// EventType names a change pushed to subscribers.
type EventType string

const (
	EventSaved          EventType = "saved"
	EventCleared        EventType = "cleared"
	EventPrefillPending EventType = "prefill_pending"
	EventPrefilled      EventType = "prefilled"
)

// Event is one change to the stored captures.
type Event struct {
	Type    EventType `json:"type"`
	Kind    Kind      `json:"kind,omitempty"`
	Capture *Capture  `json:"capture,omitempty"`
	At      time.Time `json:"at"`
}

// ValidationError wraps a payload rejected before it reached the store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Manager validates and stores captures and fans changes out to
// subscribers. The archive is optional and best effort.
type Manager struct {
	store   Store
	archive Archiver

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewManager wraps store; archive may be nil.
func NewManager(store Store, archive Archiver) *Manager {
	return &Manager{store: store, archive: archive, subs: make(map[int]chan Event)}
}

// Save validates payload as kind and stores it. Warnings are returned in the
// validation and do not block the save.
func (m *Manager) Save(ctx context.Context, kind Kind, payload, source string) (Capture, extract.Validation, error) {
	v, err := extract.ValidatePaste(kind.Mode(), payload)
	if err != nil {
		return Capture{}, v, &ValidationError{Err: err}
	}
	c, err := m.store.Save(ctx, Capture{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   strings.TrimSpace(payload),
		Count:     v.Count,
		AgentName: v.AgentName,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Capture{}, v, err
	}

	if m.archive != nil {
		if err := m.archive.Archive(ctx, c); err != nil {
			log.WithError(err).Warn("capture: archive failed")
		}
	}
	log.WithFields(log.Fields{"kind": kind, "count": c.Count, "id": c.ID}).Info("capture saved")
	m.publish(Event{Type: EventSaved, Kind: kind, Capture: &c})
	return c, v, nil
}

func (m *Manager) Latest(ctx context.Context, kind Kind) (Capture, error) {
	return m.store.Latest(ctx, kind)
}

func (m *Manager) History(ctx context.Context, kind Kind, limit int) ([]Capture, error) {
	return m.store.History(ctx, kind, limit)
}

// Clear removes captures of kind ("" for all).
func (m *Manager) Clear(ctx context.Context, kind Kind) error {
	if err := m.store.Clear(ctx, kind); err != nil {
		return err
	}
	m.publish(Event{Type: EventCleared, Kind: kind})
	return nil
}

// RequestPrefill marks the stored captures for the next generator page.
func (m *Manager) RequestPrefill(ctx context.Context) error {
	if err := m.store.SetPrefillPending(ctx, true); err != nil {
		return err
	}
	m.publish(Event{Type: EventPrefillPending})
	return nil
}

// ConsumePrefill hands out the pending prefill once.
func (m *Manager) ConsumePrefill(ctx context.Context) (Prefill, bool, error) {
	p, ok, err := m.store.ConsumePrefill(ctx)
	if err != nil || !ok {
		return p, ok, err
	}
	m.publish(Event{Type: EventPrefilled})
	return p, true, nil
}

// Subscribe returns a channel of events and a cancel func. Events are
// dropped for a subscriber whose buffer is full.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		})
	}
}

func (m *Manager) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			log.Debugf("capture: subscriber %d is slow, dropping %s event", id, ev.Type)
		}
	}
}

// Close closes every subscription and the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.mu.Unlock()
	return m.store.Close()
}
