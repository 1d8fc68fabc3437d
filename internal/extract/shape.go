package extract

import "math"

// DefaultMinToolsRatio is the share of tool-shaped elements an array needs
// to be taken for a tools array.
const DefaultMinToolsRatio = 0.5

// Confidence is the matched/total count behind a shape decision.
type Confidence struct {
	Matched int
	Total   int
}

// Ratio is Matched/Total, 0 for an empty array.
func (c Confidence) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Total)
}

// Classifier holds the tunable thresholds of the shape predicates.
type Classifier struct {
	MinToolsRatio float64
}

var defaultClassifier = Classifier{MinToolsRatio: DefaultMinToolsRatio}

// ToolsConfidence scores arr element by element: an element counts when it
// has a string name or alias and either declares type tool/function or has a
// config carrying toolId, type or schema.
func ToolsConfidence(arr []any) Confidence {
	c := Confidence{Total: len(arr)}
	for _, item := range arr {
		if isToolLike(item) {
			c.Matched++
		}
	}
	return c
}

func isToolLike(item any) bool {
	obj, ok := item.(map[string]any)
	if !ok {
		return false
	}
	_, nameIsString := obj["name"].(string)
	_, aliasIsString := obj["alias"].(string)
	if !nameIsString && !aliasIsString {
		return false
	}
	if t, _ := obj["type"].(string); t == "tool" || t == "function" {
		return true
	}
	cfg, ok := obj["config"].(map[string]any)
	if !ok {
		return false
	}
	return truthy(cfg["toolId"]) || truthy(cfg["type"]) || truthy(cfg["schema"])
}

// MessagesConfidence counts elements that have a string role and a content
// key, whatever its value.
func MessagesConfidence(arr []any) Confidence {
	c := Confidence{Total: len(arr)}
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := obj["role"].(string); !ok {
			continue
		}
		if _, ok := obj["content"]; ok {
			c.Matched++
		}
	}
	return c
}

// IsToolsArray reports whether arr is at least MinToolsRatio tool-shaped.
func (c Classifier) IsToolsArray(arr []any) bool {
	conf := ToolsConfidence(arr)
	return conf.Matched >= 1 && conf.Ratio() >= c.minRatio()
}

// IsMessagesArray needs a single message-shaped element: real conversations
// are often short and mixed.
func (c Classifier) IsMessagesArray(arr []any) bool {
	return MessagesConfidence(arr).Matched >= 1
}

func (c Classifier) accepts(arr []any, mode Mode) bool {
	if mode == ModeTools {
		return c.IsToolsArray(arr)
	}
	return c.IsMessagesArray(arr)
}

func (c Classifier) minRatio() float64 {
	if c.MinToolsRatio <= 0 {
		return DefaultMinToolsRatio
	}
	return c.MinToolsRatio
}

// IsToolsArray uses the default threshold.
func IsToolsArray(arr []any) bool { return defaultClassifier.IsToolsArray(arr) }

// IsMessagesArray uses the default classifier.
func IsMessagesArray(arr []any) bool { return defaultClassifier.IsMessagesArray(arr) }

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}
