package extract

import (
	"regexp"
	"strings"
)

// Options bounds the scan. Zero fields fall back to DefaultOptions.
type Options struct {
	GlobalScanLimit int
	MinBlockLength  int
	MinViewerLength int
	MinGlobalSize   int
	MaxGlobalSize   int
	MinToolsRatio   float64
}

func DefaultOptions() Options {
	return Options{
		GlobalScanLimit: 40,
		MinBlockLength:  50,
		MinViewerLength: 100,
		MinGlobalSize:   500,
		MaxGlobalSize:   5_000_000,
		MinToolsRatio:   DefaultMinToolsRatio,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.GlobalScanLimit <= 0 {
		o.GlobalScanLimit = def.GlobalScanLimit
	}
	if o.MinBlockLength <= 0 {
		o.MinBlockLength = def.MinBlockLength
	}
	if o.MinViewerLength <= 0 {
		o.MinViewerLength = def.MinViewerLength
	}
	if o.MaxGlobalSize <= 0 {
		o.MinGlobalSize = def.MinGlobalSize
		o.MaxGlobalSize = def.MaxGlobalSize
	}
	if o.MinToolsRatio <= 0 {
		o.MinToolsRatio = def.MinToolsRatio
	}
	return o
}

// Stats describes what was collected, for not-found diagnostics. Sizes, not
// content, so page text never leaks into error reports.
type Stats struct {
	Sources    int
	Selected   int
	Body       int
	Textareas  int
	Monaco     int
	CodeMirror int
	Scripts    int
}

var (
	wellKnownGlobals = []string{
		"__NEXT_DATA__",
		"LANGFUSE_DATA",
		"traceData",
		"observationData",
		"__INITIAL_STATE__",
		"__REDUX_STATE__",
		"store",
	}
	stateGlobalPattern = regexp.MustCompile(`(?i)state|store|workflow|orchestration|agent|graph|redux|apollo|tanstack|query`)
	detailPanelPattern = regexp.MustCompile(`\[[\s\S]*?\{[\s\S]*?"role"[\s\S]*?"content"[\s\S]*?\}[\s\S]*?\]`)
	globalHintKeys     = []string{"input", "messages", "role"}
)

// Collect orders every plausible source of snap by tier: selection, body
// text, input fields, scripts, editor models, code blocks, framework props,
// globals, attributes, JSON viewers, detail panels. snap is only read.
func Collect(snap *Snapshot, opts Options) ([]Source, Stats) {
	var stats Stats
	if snap == nil {
		return nil, stats
	}
	opts = opts.withDefaults()

	stats.Selected = len(snap.Selection)
	stats.Body = len(snap.BodyText)
	stats.Textareas = len(snap.Inputs)
	stats.Monaco = len(snap.EditorModels)
	stats.CodeMirror = len(snap.CodeMirror)
	stats.Scripts = len(snap.Scripts)

	var out []Source
	addText := func(kind SourceKind, name, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		out = append(out, Source{Kind: kind, Name: name, Text: text})
	}

	addText(SourceSelection, "selection", snap.Selection)
	addText(SourceBody, "body", snap.BodyText)
	for _, v := range snap.Inputs {
		addText(SourceInput, "textarea", v)
	}
	for _, v := range snap.Scripts {
		addText(SourceScript, "script", v)
	}
	for _, v := range snap.EditorModels {
		addText(SourceEditor, "monaco", v)
	}
	for _, v := range snap.CodeMirror {
		addText(SourceEditor, "codemirror", v)
	}
	for _, v := range snap.CodeBlocks {
		if len(v) > opts.MinBlockLength {
			addText(SourceCodeBlock, "code", v)
		}
	}
	for _, v := range snap.FrameworkProps {
		if isContainer(v) {
			out = append(out, Source{Kind: SourceFramework, Name: "props", Value: v})
		}
	}
	out = append(out, collectGlobals(snap.Globals, opts)...)
	for _, v := range snap.Attributes {
		if len(v) > opts.MinBlockLength {
			addText(SourceAttribute, "data-attribute", v)
		}
	}
	for _, v := range snap.Viewers {
		if len(v) > opts.MinViewerLength && (strings.Contains(v, `"role"`) || strings.Contains(v, `"content"`)) {
			addText(SourceViewer, "json-viewer", v)
		}
	}
	for _, v := range snap.DetailPanels {
		if m := detailPanelPattern.FindString(v); m != "" {
			addText(SourceDetail, "detail-panel", m)
		}
	}

	stats.Sources = len(out)
	return out, stats
}

// collectGlobals takes well-known names first, then up to GlobalScanLimit
// names that look like app state, then anything else of plausible size that
// carries a conversation-looking key.
func collectGlobals(globals []Global, opts Options) []Source {
	if len(globals) == 0 {
		return nil
	}
	taken := make([]bool, len(globals))
	var out []Source
	take := func(i int) {
		taken[i] = true
		g := globals[i]
		switch v := g.Value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				out = append(out, Source{Kind: SourceGlobal, Name: g.Name, Text: v})
			}
		default:
			if isContainer(v) {
				out = append(out, Source{Kind: SourceGlobal, Name: g.Name, Value: v})
			}
		}
	}

	for _, name := range wellKnownGlobals {
		for i := range globals {
			if !taken[i] && globals[i].Name == name {
				take(i)
			}
		}
	}

	matched := 0
	for i := range globals {
		if matched >= opts.GlobalScanLimit {
			break
		}
		if taken[i] || !stateGlobalPattern.MatchString(globals[i].Name) {
			continue
		}
		matched++
		take(i)
	}

	for i := range globals {
		if taken[i] || !isContainer(globals[i].Value) {
			continue
		}
		size, hinted := measure(globals[i].Value, opts.MaxGlobalSize)
		if hinted && size >= opts.MinGlobalSize && size <= opts.MaxGlobalSize {
			take(i)
		}
	}
	return out
}

// measure approximates the serialized size of v and reports whether any
// object key names a conversation field. It stops counting once limit is
// exceeded and never revisits a container.
func measure(v any, limit int) (int, bool) {
	seen := newVisited()
	size := 0
	hinted := false
	var walk func(any)
	walk = func(node any) {
		if size > limit {
			return
		}
		switch t := node.(type) {
		case map[string]any:
			if !seen.enter(t) {
				return
			}
			size += 2
			for k, child := range t {
				size += len(k) + 4
				if !hinted {
					for _, h := range globalHintKeys {
						if k == h {
							hinted = true
							break
						}
					}
				}
				walk(child)
				if size > limit {
					return
				}
			}
		case []any:
			if !seen.enter(t) {
				return
			}
			size += 2
			for _, child := range t {
				size++
				walk(child)
				if size > limit {
					return
				}
			}
		case string:
			size += len(t) + 2
		case nil:
			size += 4
		default:
			size += 5
		}
	}
	walk(v)
	return size, hinted
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
