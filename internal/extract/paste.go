package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPaste is returned for blank pasted text.
var ErrEmptyPaste = errors.New("Please paste JSON first")

// Validation describes pasted or captured JSON for status display.
type Validation struct {
	Count     int    `json:"count"`
	AgentName string `json:"agentName,omitempty"`
	IsAgent   bool   `json:"isAgent,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// ValidatePaste checks JSON a user pasted by hand. Shape mismatches that are
// still storable come back as a Warning; only unusable input is an error.
func ValidatePaste(mode Mode, text string) (Validation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Validation{}, ErrEmptyPaste
	}
	parsed, err := parsePasted(text)
	if err != nil {
		return Validation{}, err
	}

	if mode == ModeTools {
		switch v := parsed.(type) {
		case []any:
			out := Validation{Count: len(v)}
			if len(v) > 0 && !anyElement(v, looksLikeToolEntry) {
				out.Warning = "Doesn't look like tools array, but saving anyway"
			}
			return out, nil
		case map[string]any:
			out := Validation{Count: len(agentTools(v)), IsAgent: true}
			out.AgentName, _ = v["name"].(string)
			_, hasTools := getPath(v, []string{"config", "tools"}).([]any)
			if v["type"] != "agent" && !hasTools {
				out.Warning = "Doesn't look like agent node, but saving anyway"
			}
			return out, nil
		}
		return Validation{}, errors.New("JSON must be an array or agent object")
	}

	arr, ok := parsed.([]any)
	if !ok {
		return Validation{}, errors.New("Messages JSON must be an array")
	}
	out := Validation{Count: len(arr)}
	if len(arr) > 0 && !anyElement(arr, looksLikeMessageEntry) {
		out.Warning = "Doesn't look like messages array, but saving anyway"
	}
	return out, nil
}

// Summarize reports the count and agent name of stored JSON without
// validating it. Unparseable text counts as zero.
func Summarize(mode Mode, text string) Validation {
	v, ok := ParseLenient(strings.TrimSpace(text))
	if !ok {
		return Validation{}
	}
	switch t := v.(type) {
	case []any:
		return Validation{Count: len(t)}
	case map[string]any:
		if mode != ModeTools {
			return Validation{}
		}
		name, _ := t["name"].(string)
		return Validation{Count: len(agentTools(t)), AgentName: name, IsAgent: true}
	}
	return Validation{}
}

func parsePasted(text string) (any, error) {
	if v, ok := ParseLenient(text); ok {
		return v, nil
	}
	var probe any
	if err := unmarshalDetail(text, &probe); err != nil {
		return nil, fmt.Errorf("Invalid JSON: %v", err)
	}
	return probe, nil
}

func anyElement(arr []any, pred func(map[string]any) bool) bool {
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok && pred(obj) {
			return true
		}
	}
	return false
}

func looksLikeToolEntry(obj map[string]any) bool {
	if truthy(obj["name"]) || truthy(obj["function"]) {
		return true
	}
	t, _ := obj["type"].(string)
	return t == "tool" || t == "function"
}

func looksLikeMessageEntry(obj map[string]any) bool {
	if !truthy(obj["role"]) {
		return false
	}
	_, ok := obj["content"]
	return ok
}
