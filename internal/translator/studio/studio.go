// Package studio converts studio tool and message JSON into an OpenAI Chat
// Completions request body. All transforms work on raw JSON through gjson and
// sjson so the key order of the captured payload survives conversion.
package studio

import (
	"errors"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is wrapped by every input that does not parse.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNoMessages is returned when every message was dropped by conversion.
	ErrNoMessages = errors.New("No valid messages found after conversion. Please check your input.")
)

// InputError reports a tools or messages input that is not the JSON array
// (or agent node) it has to be.
type InputError struct {
	Kind string
}

func (e *InputError) Error() string {
	return "Please enter valid " + e.Kind + " JSON array"
}

func (e *InputError) Unwrap() error { return ErrInvalidJSON }

// parseJSON parses raw as JSON, accepting HuJSON comments and trailing
// commas from hand-edited input.
func parseJSON(raw string) (gjson.Result, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gjson.Result{}, false
	}
	if gjson.Valid(raw) {
		return gjson.Parse(raw), true
	}
	std, err := hujson.Standardize([]byte(raw))
	if err != nil {
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(std), true
}

func joinRaw(items []string) string {
	return "[" + strings.Join(items, ",") + "]"
}

// firstString returns the first non-empty string field of node.
func firstString(node gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := node.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
