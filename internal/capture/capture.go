// Package capture keeps captured tools and messages payloads between the
// capture side (host page) and the generator side, together with a one-shot
// prefill flag the generator consumes when it opens.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
)

// ErrNotFound is returned when no capture of a kind is stored.
var ErrNotFound = errors.New("capture: not found")

// Kind is what a capture holds.
type Kind string

const (
	KindTools    Kind = "tools"
	KindMessages Kind = "messages"
)

// ParseKind accepts tools or messages.
func ParseKind(s string) (Kind, error) {
	mode, err := extract.ParseMode(s)
	if err != nil {
		return "", fmt.Errorf("capture: unknown kind %q", s)
	}
	return Kind(mode), nil
}

// Mode is the extraction mode that produces this kind.
func (k Kind) Mode() extract.Mode { return extract.Mode(k) }

// Capture is one stored payload.
type Capture struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Payload   string    `json:"payload"`
	Count     int       `json:"count"`
	AgentName string    `json:"agentName,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Prefill is what the generator loads into its inputs: the latest capture of
// each kind, either of which may be missing.
type Prefill struct {
	Tools    *Capture `json:"tools,omitempty"`
	Messages *Capture `json:"messages,omitempty"`
}

// Store persists captures. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, c Capture) (Capture, error)
	Latest(ctx context.Context, kind Kind) (Capture, error)
	History(ctx context.Context, kind Kind, limit int) ([]Capture, error)
	// Clear removes captures of kind, or of every kind when kind is "". The
	// prefill flag is reset as well.
	Clear(ctx context.Context, kind Kind) error
	SetPrefillPending(ctx context.Context, pending bool) error
	// ConsumePrefill returns the latest captures and clears the flag when it
	// was set; ok is false when no prefill was pending.
	ConsumePrefill(ctx context.Context) (p Prefill, ok bool, err error)
	Close() error
}

const defaultHistoryLimit = 50

// Open returns the Postgres store when cfg has a DSN and the SQLite store at
// cfg.DBPath otherwise.
func Open(ctx context.Context, cfg config.CaptureStore) (Store, error) {
	if strings.TrimSpace(cfg.DSN) != "" {
		return NewPostgresStore(ctx, cfg.DSN, cfg.Schema, cfg.HistoryLimit)
	}
	return NewSQLiteStore(cfg.DBPath, cfg.HistoryLimit)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func historyLimit(n int) int {
	if n <= 0 {
		return defaultHistoryLimit
	}
	return n
}
