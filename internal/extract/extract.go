package extract

import (
	"errors"
	"fmt"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
)

const (
	notFoundTools    = "Could not find agent node. Click on an agent node in the canvas first, then capture."
	notFoundMessages = "Could not find conversation/messages array. Open trace JSON or select a JSON block and retry."
)

// Result is the outcome of one extraction run. Failures are values, never
// panics or Go errors.
type Result struct {
	OK        bool   `json:"ok"`
	Value     string `json:"value,omitempty"`
	Count     int    `json:"count"`
	AgentName string `json:"agentName,omitempty"`
	Error     string `json:"error,omitempty"`
	Debug     string `json:"debug,omitempty"`
}

// ErrNotFound is wrapped by Result.Err for runs that captured nothing.
var ErrNotFound = errors.New("extract: nothing captured")

// Err returns nil for a successful run and an error wrapping ErrNotFound
// with the user-facing message otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, r.Error)
}

// Extractor runs the collect, scan, classify pipeline. It holds no state
// between runs; retries are independent.
type Extractor struct {
	opts       Options
	classifier Classifier
}

// New returns an Extractor; zero Options fields take their defaults.
func New(opts Options) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{opts: opts, classifier: Classifier{MinToolsRatio: opts.MinToolsRatio}}
}

// Extract finds the tools (or messages) payload in snap. The first source in
// tier order that yields a match wins; an ambiguous agent selection stops the
// run immediately.
func (e *Extractor) Extract(snap *Snapshot, mode Mode) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("extract: recovered from panic: %v", r)
			res = Result{OK: false, Error: fmt.Sprintf("Capture failed: %v", r), Debug: "mode=" + string(mode)}
		}
	}()

	sources, stats := Collect(snap, e.opts)

	for _, src := range sources {
		m, err := e.fromSource(src, mode)
		if err != nil {
			return Result{OK: false, Error: err.Error(), Debug: fmt.Sprintf("sources=%d", len(sources))}
		}
		if m != nil {
			log.WithFields(log.Fields{"mode": mode, "source": src.Name, "count": m.Count()}).Debug("extract: match")
			return success(m.Value(), m.Count(), m.AgentName())
		}
	}

	keys := AnchorKeys(mode)
	for _, src := range sources {
		if src.Structured() {
			continue
		}
		if arr := ExtractArrayByKeys(src.Text, keys); arr != nil {
			log.WithFields(log.Fields{"mode": mode, "source": src.Name, "count": len(arr)}).Debug("extract: key-anchored match")
			return success(arr, len(arr), "")
		}
	}

	if snap != nil && snap.Selection != "" {
		if arr, ok := mustArray(ParseStrict(snap.Selection)); ok {
			return success(arr, len(arr), "")
		}
	}

	msg := notFoundMessages
	if mode == ModeTools {
		msg = notFoundTools
	}
	return Result{
		OK:    false,
		Error: msg,
		Debug: fmt.Sprintf("sources=%d, selected=%d, body=%d, textarea=%d, monaco=%d, cm=%d, scripts=%d",
			stats.Sources, stats.Selected, stats.Body, stats.Textareas, stats.Monaco, stats.CodeMirror, stats.Scripts),
	}
}

// fromSource tries the whole source as JSON, then each balanced slice.
func (e *Extractor) fromSource(src Source, mode Mode) (*Match, error) {
	if src.Structured() {
		return e.classifier.Find(src.Value, mode)
	}
	if v, ok := ParseStrict(src.Text); ok {
		m, err := e.classifier.Find(v, mode)
		if err != nil || m != nil {
			return m, err
		}
	}
	for v := range Values(src.Text) {
		m, err := e.classifier.Find(v, mode)
		if err != nil || m != nil {
			return m, err
		}
	}
	return nil, nil
}

func success(v any, count int, agentName string) Result {
	if hasCycle(v) {
		return Result{OK: false, Error: "Capture failed: matched value contains a reference cycle"}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Result{OK: false, Error: fmt.Sprintf("Capture failed: %v", err)}
	}
	return Result{OK: true, Value: string(data), Count: count, AgentName: agentName}
}
