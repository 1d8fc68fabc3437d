// Package extract locates studio tool and message JSON inside host-page
// state. The host page is never touched directly: a collaborator enumerates
// what is visible or stateful into a Snapshot and the package only reads it.
package extract

import (
	"fmt"
	"strings"
)

// Mode selects what the extractor looks for.
type Mode string

const (
	ModeTools    Mode = "tools"
	ModeMessages Mode = "messages"
)

// ParseMode accepts "tools" or "messages" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTools:
		return ModeTools, nil
	case ModeMessages:
		return ModeMessages, nil
	}
	return "", fmt.Errorf("extract: unknown mode %q (want tools or messages)", s)
}

// Snapshot is the already-enumerated state of one host frame. Values in
// FrameworkProps and Globals are JSON-shaped (map[string]any, []any,
// scalars) and may reference each other cyclically.
type Snapshot struct {
	Selection      string   `json:"selection,omitempty"`
	BodyText       string   `json:"bodyText,omitempty"`
	Inputs         []string `json:"inputs,omitempty"`
	Scripts        []string `json:"scripts,omitempty"`
	EditorModels   []string `json:"editorModels,omitempty"`
	CodeMirror     []string `json:"codeMirror,omitempty"`
	CodeBlocks     []string `json:"codeBlocks,omitempty"`
	FrameworkProps []any    `json:"frameworkProps,omitempty"`
	Globals        []Global `json:"globals,omitempty"`
	Attributes     []string `json:"attributes,omitempty"`
	Viewers        []string `json:"viewers,omitempty"`
	DetailPanels   []string `json:"detailPanels,omitempty"`
}

// Global is one named value from the host's global object, in enumeration
// order.
type Global struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// SourceKind names the tier a Source was collected from.
type SourceKind string

const (
	SourceSelection SourceKind = "selection"
	SourceBody      SourceKind = "body"
	SourceInput     SourceKind = "input"
	SourceScript    SourceKind = "script"
	SourceEditor    SourceKind = "editor"
	SourceCodeBlock SourceKind = "code-block"
	SourceFramework SourceKind = "framework"
	SourceGlobal    SourceKind = "global"
	SourceAttribute SourceKind = "attribute"
	SourceViewer    SourceKind = "viewer"
	SourceDetail    SourceKind = "detail-panel"
)

// Source is one candidate: either raw text to scan or an already structured
// value to search.
type Source struct {
	Kind  SourceKind
	Name  string
	Text  string
	Value any
}

// Structured reports whether the source carries a value instead of text.
func (s Source) Structured() bool {
	return s.Value != nil
}
