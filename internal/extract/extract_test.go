package extract

import (
	"errors"
	"strings"
	"testing"
)

const canvasOneAgent = `{"nodes": [
	{"id": "n0", "type": "trigger"},
	{"id": "n1", "type": "agent", "name": "Planner", "config": {"tools": [
		{"name": "lookup", "type": "tool"},
		{"name": "store", "type": "tool"}
	]}}
]}`

func TestExtractAgentFromScript(t *testing.T) {
	snap := &Snapshot{Scripts: []string{"window.__canvas = " + canvasOneAgent + ";"}}
	res := New(Options{}).Extract(snap, ModeTools)
	if !res.OK {
		t.Fatalf("Extract failed: %s (%s)", res.Error, res.Debug)
	}
	if res.AgentName != "Planner" || res.Count != 2 {
		t.Errorf("agent = %q count = %d, want Planner 2", res.AgentName, res.Count)
	}
	if !strings.Contains(res.Value, "\n  \"config\": {") {
		t.Errorf("value is not 2-space indented:\n%s", res.Value)
	}
	if _, ok := ParseStrict(res.Value); !ok {
		t.Errorf("value is not valid JSON:\n%s", res.Value)
	}
}

func TestExtractAmbiguousAgents(t *testing.T) {
	snap := &Snapshot{BodyText: `{"nodes": [
		{"id": "a1", "type": "agent", "name": "Planner", "config": {"tools": []}},
		{"id": "a2", "type": "agent", "name": "Writer", "config": {"tools": []}}
	]}`}
	res := New(Options{}).Extract(snap, ModeTools)
	if res.OK {
		t.Fatal("Extract succeeded, want ambiguity failure")
	}
	if !strings.HasPrefix(res.Error, "Multiple agents found (Planner, Writer).") {
		t.Errorf("error = %q", res.Error)
	}
	if res.Debug != "sources=1" {
		t.Errorf("debug = %q, want sources=1", res.Debug)
	}
}

func TestExtractNotFoundDiagnostics(t *testing.T) {
	snap := &Snapshot{BodyText: "hello world", Scripts: []string{"var x = 1;"}}
	res := New(Options{}).Extract(snap, ModeMessages)
	if res.OK {
		t.Fatal("Extract succeeded, want not found")
	}
	if res.Error != notFoundMessages {
		t.Errorf("error = %q", res.Error)
	}
	want := "sources=2, selected=0, body=11, textarea=0, monaco=0, cm=0, scripts=1"
	if res.Debug != want {
		t.Errorf("debug = %q, want %q", res.Debug, want)
	}

	res = New(Options{}).Extract(&Snapshot{}, ModeTools)
	if res.Error != notFoundTools {
		t.Errorf("tools error = %q", res.Error)
	}
}

func TestExtractKeyAnchoredFallback(t *testing.T) {
	snap := &Snapshot{BodyText: `window.x = {"messages": [{"text":"hi"}], broken`}
	res := New(Options{}).Extract(snap, ModeMessages)
	if !res.OK {
		t.Fatalf("Extract failed: %s (%s)", res.Error, res.Debug)
	}
	if res.Count != 1 {
		t.Errorf("count = %d, want 1", res.Count)
	}
	want := "[\n  {\n    \"text\": \"hi\"\n  }\n]"
	if res.Value != want {
		t.Errorf("value = %q, want %q", res.Value, want)
	}
}

func TestExtractSelectionArrayFallback(t *testing.T) {
	res := New(Options{}).Extract(&Snapshot{Selection: "[1,2,3]"}, ModeMessages)
	if !res.OK || res.Count != 3 {
		t.Fatalf("result = %+v, want ok with 3 items", res)
	}
	if res.Value != "[\n  1,\n  2,\n  3\n]" {
		t.Errorf("value = %q", res.Value)
	}
}

func TestExtractTierOrder(t *testing.T) {
	snap := &Snapshot{
		BodyText: `[{"role": "user", "content": "from body"}]`,
		Scripts:  []string{`[{"role": "user", "content": "from script"}]`},
	}
	res := New(Options{}).Extract(snap, ModeMessages)
	if !res.OK {
		t.Fatalf("Extract failed: %s", res.Error)
	}
	if !strings.Contains(res.Value, "from body") {
		t.Errorf("value = %s, want body tier to win", res.Value)
	}
}

func TestExtractCyclicGlobal(t *testing.T) {
	root := map[string]any{
		"thread": map[string]any{
			"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		},
	}
	root["self"] = root
	snap := &Snapshot{Globals: []Global{{Name: "__APP_STATE__", Value: root}}}

	res := New(Options{}).Extract(snap, ModeMessages)
	if !res.OK || res.Count != 1 {
		t.Fatalf("result = %+v, want one message", res)
	}
}

func TestExtractCyclicMatchFails(t *testing.T) {
	agent := map[string]any{"type": "agent", "name": "Loop"}
	cfg := map[string]any{"tools": []any{map[string]any{"name": "x", "type": "tool"}}, "owner": agent}
	agent["config"] = cfg
	snap := &Snapshot{FrameworkProps: []any{agent}}

	res := New(Options{}).Extract(snap, ModeTools)
	if res.OK {
		t.Fatal("Extract succeeded on a cyclic match")
	}
	if !strings.Contains(res.Error, "reference cycle") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestExtractNilSnapshot(t *testing.T) {
	res := New(Options{}).Extract(nil, ModeTools)
	if res.OK {
		t.Fatal("Extract succeeded on nil snapshot")
	}
	if !strings.HasPrefix(res.Debug, "sources=0,") {
		t.Errorf("debug = %q", res.Debug)
	}
}

func TestExtractRetriesAreIndependent(t *testing.T) {
	ex := New(Options{})
	snap := &Snapshot{Scripts: []string{canvasOneAgent}}
	first := ex.Extract(snap, ModeTools)
	second := ex.Extract(snap, ModeTools)
	if first != second {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Tools "); err != nil || m != ModeTools {
		t.Errorf("ParseMode = %q, %v", m, err)
	}
	if _, err := ParseMode("other"); err == nil {
		t.Error("ParseMode(other) succeeded")
	}
}

func TestResultErr(t *testing.T) {
	if err := (Result{OK: true}).Err(); err != nil {
		t.Errorf("Err() on success = %v", err)
	}
	err := Result{Error: "Could not find agent node."}.Err()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Err() = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Could not find agent node.") {
		t.Errorf("Err() = %q, want the user message", err.Error())
	}
}
