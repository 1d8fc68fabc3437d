package extract

import (
	"strings"
	"testing"
)

func sourceNames(srcs []Source) []string {
	names := make([]string, len(srcs))
	for i, s := range srcs {
		names[i] = s.Name
	}
	return names
}

func TestCollectTierOrder(t *testing.T) {
	snap := &Snapshot{
		Selection:    "sel",
		BodyText:     "body",
		Inputs:       []string{"input"},
		Scripts:      []string{"script"},
		EditorModels: []string{"model"},
		CodeMirror:   []string{"cm"},
	}
	srcs, stats := Collect(snap, Options{})
	got := strings.Join(sourceNames(srcs), ",")
	want := "selection,body,textarea,script,monaco,codemirror"
	if got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if stats.Sources != 6 || stats.Selected != 3 || stats.Body != 4 || stats.Textareas != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCollectThresholds(t *testing.T) {
	snap := &Snapshot{
		CodeBlocks: []string{strings.Repeat("x", 50), strings.Repeat("y", 51)},
		Viewers: []string{
			`{"role": "user"}`,
			strings.Repeat(" ", 120) + `{"content": "x"}`,
			strings.Repeat("z", 200),
		},
	}
	srcs, _ := Collect(snap, Options{})
	got := strings.Join(sourceNames(srcs), ",")
	if got != "code,json-viewer" {
		t.Errorf("sources = %s, want code,json-viewer", got)
	}
	if srcs[0].Text[0] != 'y' {
		t.Errorf("kept the 50 char block, want the 51 char block")
	}
}

func TestCollectDetailPanel(t *testing.T) {
	snap := &Snapshot{DetailPanels: []string{
		`Input: [ {"role": "user", "content": "x"} ] Output: none`,
		`no json here`,
	}}
	srcs, _ := Collect(snap, Options{})
	if len(srcs) != 1 {
		t.Fatalf("got %d sources, want 1", len(srcs))
	}
	if srcs[0].Text != `[ {"role": "user", "content": "x"} ]` {
		t.Errorf("text = %q", srcs[0].Text)
	}
}

func TestCollectGlobals(t *testing.T) {
	big := map[string]any{"messages": []any{}, "blob": strings.Repeat("a", 600)}
	snap := &Snapshot{Globals: []Global{
		{Name: "appState", Value: map[string]any{"a": 1.0}},
		{Name: "agentGraph", Value: map[string]any{"b": 1.0}},
		{Name: "__NEXT_DATA__", Value: map[string]any{"c": 1.0}},
		{Name: "misc", Value: big},
		{Name: "tiny", Value: map[string]any{"messages": []any{}}},
		{Name: "scalar", Value: 3.0},
	}}
	srcs, _ := Collect(snap, Options{GlobalScanLimit: 1})
	got := strings.Join(sourceNames(srcs), ",")
	want := "__NEXT_DATA__,appState,misc"
	if got != want {
		t.Errorf("globals = %s, want %s", got, want)
	}
	for _, s := range srcs {
		if !s.Structured() {
			t.Errorf("global %s collected as text", s.Name)
		}
	}
}

func TestCollectStringGlobal(t *testing.T) {
	snap := &Snapshot{Globals: []Global{{Name: "traceData", Value: `{"messages": []}`}}}
	srcs, _ := Collect(snap, Options{})
	if len(srcs) != 1 || srcs[0].Structured() || srcs[0].Text == "" {
		t.Errorf("sources = %+v, want one text source", srcs)
	}
}

func TestMeasureCyclic(t *testing.T) {
	m := map[string]any{"role": "user"}
	m["self"] = m
	size, hinted := measure(m, 1000)
	if !hinted {
		t.Error("role key not detected")
	}
	if size <= 0 || size > 1000 {
		t.Errorf("size = %d", size)
	}
}
