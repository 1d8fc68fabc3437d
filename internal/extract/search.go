package extract

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MatchKind tells a plain array match from a whole agent node.
type MatchKind int

const (
	MatchArray MatchKind = iota
	MatchAgent
)

// Match is a successful search result. For MatchAgent the whole node is kept
// so it can be serialized with its model and structured-output settings.
type Match struct {
	Kind  MatchKind
	Array []any
	Agent map[string]any
}

// Value is what gets serialized for the caller.
func (m *Match) Value() any {
	if m.Kind == MatchAgent {
		return m.Agent
	}
	return m.Array
}

// Count is the number of tools of an agent node, or the array length.
func (m *Match) Count() int {
	if m.Kind == MatchAgent {
		return len(agentTools(m.Agent))
	}
	return len(m.Array)
}

// AgentName is the agent node's name, "" for arrays.
func (m *Match) AgentName() string {
	if m.Kind != MatchAgent {
		return ""
	}
	name, _ := m.Agent["name"].(string)
	return name
}

// AmbiguousSelectionError is returned when a canvas holds several agent
// nodes and none is selected.
type AmbiguousSelectionError struct {
	Candidates []string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("Multiple agents found (%s). Please click on the agent you want to capture first.",
		strings.Join(e.Candidates, ", "))
}

// IsAmbiguousSelection reports whether err is an *AmbiguousSelectionError.
func IsAmbiguousSelection(err error) bool {
	var target *AmbiguousSelectionError
	return errors.As(err, &target)
}

// FindAgentNode picks the agent node of a canvas graph ({nodes:[...]}).
// One agent is returned as is; several need exactly one selected:true (or
// the first of several selected). Several with none selected is an
// AmbiguousSelectionError. No agents, or no nodes array, returns nil, nil.
func FindAgentNode(root map[string]any) (map[string]any, error) {
	nodes, ok := root["nodes"].([]any)
	if !ok {
		return nil, nil
	}
	var agents []map[string]any
	for _, n := range nodes {
		obj, ok := n.(map[string]any)
		if ok && obj["type"] == "agent" {
			agents = append(agents, obj)
		}
	}
	switch len(agents) {
	case 0:
		return nil, nil
	case 1:
		return agents[0], nil
	}
	for _, a := range agents {
		if sel, _ := a["selected"].(bool); sel {
			return a, nil
		}
	}
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = agentLabel(a)
	}
	return nil, &AmbiguousSelectionError{Candidates: names}
}

func agentLabel(a map[string]any) string {
	if name, ok := a["name"].(string); ok && name != "" {
		return name
	}
	switch id := a["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

func agentTools(agent map[string]any) []any {
	cfg, _ := agent["config"].(map[string]any)
	tools, _ := cfg["tools"].([]any)
	return tools
}

func isAgentNode(obj map[string]any) bool {
	if obj["type"] != "agent" {
		return false
	}
	cfg, ok := obj["config"].(map[string]any)
	return ok && truthy(cfg["tools"])
}

var (
	toolPaths    = [][]string{{"config", "tools"}, {"tools"}, {"data", "tools"}}
	messagePaths = [][]string{
		{"messages"},
		{"conversation"},
		{"thread", "messages"},
		{"threadMessages"},
		{"data", "messages"},
		{"input", "messages"},
		{"input"},
		{"kwargs", "messages"},
		{"observation", "input", "messages"},
		{"observation", "input"},
	}
)

func getPath(v any, path []string) any {
	cur := v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

// Find searches v for the best match of mode. Tools mode tries, in order:
// the canvas agent node, v itself as an agent node, the known tool paths,
// then a depth-first search. Messages mode tries the known message paths,
// then the depth-first search. A nil Match with nil error means no match.
func (c Classifier) Find(v any, mode Mode) (*Match, error) {
	if arr, ok := v.([]any); ok && c.accepts(arr, mode) {
		return &Match{Kind: MatchArray, Array: arr}, nil
	}
	if !isContainer(v) {
		return nil, nil
	}

	paths := messagePaths
	if mode == ModeTools {
		if obj, ok := v.(map[string]any); ok {
			agent, err := FindAgentNode(obj)
			if err != nil {
				return nil, err
			}
			if agent != nil {
				return &Match{Kind: MatchAgent, Agent: agent}, nil
			}
			if isAgentNode(obj) {
				return &Match{Kind: MatchAgent, Agent: obj}, nil
			}
		}
		paths = toolPaths
	}
	for _, p := range paths {
		if arr, ok := getPath(v, p).([]any); ok && c.accepts(arr, mode) {
			return &Match{Kind: MatchArray, Array: arr}, nil
		}
	}

	if arr := c.deepFind(v, mode, true); arr != nil {
		return &Match{Kind: MatchArray, Array: arr}, nil
	}
	if arr := c.deepFind(v, mode, false); arr != nil {
		return &Match{Kind: MatchArray, Array: arr}, nil
	}
	return nil, nil
}

// Find uses the default classifier.
func Find(v any, mode Mode) (*Match, error) {
	return defaultClassifier.Find(v, mode)
}

func keyHints(mode Mode) []string {
	if mode == ModeTools {
		return []string{"tool"}
	}
	return []string{"message", "conversation"}
}

func keyMatches(key string, hints []string) bool {
	lower := strings.ToLower(key)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// deepFind walks v depth-first with a cycle guard. With keyed set only arrays
// held under a key hinting at mode are accepted; otherwise any accepted array
// anywhere. Object keys are visited in sorted order.
func (c Classifier) deepFind(v any, mode Mode, keyed bool) []any {
	hints := keyHints(mode)
	seen := newVisited()
	var walk func(node any) []any
	walk = func(node any) []any {
		if !seen.enter(node) {
			return nil
		}
		switch t := node.(type) {
		case []any:
			if !keyed && c.accepts(t, mode) {
				return t
			}
			for _, item := range t {
				if found := walk(item); found != nil {
					return found
				}
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				child := t[k]
				if arr, ok := child.([]any); ok && keyMatches(k, hints) && c.accepts(arr, mode) {
					return arr
				}
				if found := walk(child); found != nil {
					return found
				}
			}
		}
		return nil
	}
	return walk(v)
}
