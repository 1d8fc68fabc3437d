package studio

import (
	"github.com/tidwall/gjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

// AgentSettings are the model settings carried by a captured agent node.
type AgentSettings struct {
	Name             string
	Temperature      *float64
	ReasoningEffort  string
	StructuredOutput bool
	Schema           string
}

func readAgentSettings(node gjson.Result) *AgentSettings {
	s := &AgentSettings{Name: node.Get("name").String()}
	model := node.Get("config.model")
	if t := model.Get("temperature"); t.Type == gjson.Number {
		v := t.Num
		s.Temperature = &v
	}
	s.ReasoningEffort = model.Get("reasoningEffort").String()

	so := node.Get("config.structuredOutput")
	s.StructuredOutput = so.Get("enable").Bool() || so.Get("enabled").Bool()
	switch schema := so.Get("schema"); {
	case schema.IsObject():
		s.Schema = schema.Raw
	case schema.Type == gjson.String:
		s.Schema = schema.Str
	}
	return s
}

// Apply overrides the matching fields of cfg with the agent's settings.
func (s *AgentSettings) Apply(cfg config.RequestConfig) config.RequestConfig {
	if s == nil {
		return cfg
	}
	if s.Temperature != nil {
		cfg.Temperature = *s.Temperature
	}
	if s.ReasoningEffort != "" {
		cfg.ReasoningEnabled = true
		cfg.ReasoningEffort = s.ReasoningEffort
	}
	if s.StructuredOutput && s.Schema != "" {
		cfg.StructuredOutputEnabled = true
		cfg.StructuredOutputSchema = s.Schema
	}
	return cfg
}
