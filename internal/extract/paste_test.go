package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePaste(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		text      string
		wantCount int
		wantAgent string
		wantWarn  string
		wantErr   string
	}{
		{name: "tools array", mode: ModeTools, text: `[{"name": "a"}, {"name": "b"}]`, wantCount: 2},
		{name: "tools array warning", mode: ModeTools, text: `[{"x": 1}]`, wantCount: 1, wantWarn: "Doesn't look like tools array, but saving anyway"},
		{name: "agent node", mode: ModeTools, text: `{"type": "agent", "name": "Planner", "config": {"tools": [{}, {}, {}]}}`, wantCount: 3, wantAgent: "Planner"},
		{name: "non agent object", mode: ModeTools, text: `{"name": "x"}`, wantAgent: "x", wantWarn: "Doesn't look like agent node, but saving anyway"},
		{name: "tools scalar", mode: ModeTools, text: `42`, wantErr: "JSON must be an array or agent object"},
		{name: "messages array", mode: ModeMessages, text: `[{"role": "user", "content": "hi"}]`, wantCount: 1},
		{name: "messages warning", mode: ModeMessages, text: `[{"text": "hi"}]`, wantCount: 1, wantWarn: "Doesn't look like messages array, but saving anyway"},
		{name: "messages object", mode: ModeMessages, text: `{"messages": []}`, wantErr: "Messages JSON must be an array"},
		{name: "trailing comma", mode: ModeMessages, text: `[{"role": "user", "content": "hi"},]`, wantCount: 1},
		{name: "empty array", mode: ModeTools, text: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePaste(tt.mode, tt.text)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePaste failed: %v", err)
			}
			if got.Count != tt.wantCount || got.AgentName != tt.wantAgent || got.Warning != tt.wantWarn {
				t.Errorf("ValidatePaste = %+v, want count=%d agent=%q warning=%q",
					got, tt.wantCount, tt.wantAgent, tt.wantWarn)
			}
		})
	}
}

func TestValidatePasteEmpty(t *testing.T) {
	if _, err := ValidatePaste(ModeTools, "   "); !errors.Is(err, ErrEmptyPaste) {
		t.Errorf("err = %v, want ErrEmptyPaste", err)
	}
}

func TestValidatePasteInvalid(t *testing.T) {
	_, err := ValidatePaste(ModeMessages, `{"role": `)
	if err == nil || !strings.HasPrefix(err.Error(), "Invalid JSON: ") {
		t.Errorf("err = %v, want Invalid JSON prefix", err)
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(ModeMessages, `[1, 2]`); got.Count != 2 {
		t.Errorf("Summarize array = %+v", got)
	}
	got := Summarize(ModeTools, `{"name": "Planner", "config": {"tools": [{}]}}`)
	if got.Count != 1 || got.AgentName != "Planner" || !got.IsAgent {
		t.Errorf("Summarize agent = %+v", got)
	}
	if got := Summarize(ModeTools, "not json"); got.Count != 0 {
		t.Errorf("Summarize invalid = %+v", got)
	}
}
