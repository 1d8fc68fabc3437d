package api

import (
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

// RequestOverrides replaces fields of the configured request record for one
// call. Nil fields keep the configured value.
type RequestOverrides struct {
	APIEndpoint      *string  `json:"apiEndpoint"`
	APIVersion       *string  `json:"apiVersion"`
	APIKey           *string  `json:"apiKey"`
	HostHeader       *string  `json:"hostHeader"`
	Temperature      *float64 `json:"temperature"`
	TopP             *float64 `json:"topP"`
	ToolChoice       *string  `json:"toolChoice"`
	FrequencyPenalty *float64 `json:"frequencyPenalty"`
	PresencePenalty  *float64 `json:"presencePenalty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens"`

	ReasoningEnabled *bool   `json:"reasoningEnabled"`
	ReasoningEffort  *string `json:"reasoningEffort"`

	StructuredOutputEnabled *bool   `json:"structuredOutputEnabled"`
	StructuredOutputSchema  *string `json:"structuredOutputSchema"`

	Model             *string `json:"model"`
	UseAgentSettings  *bool   `json:"useAgentSettings"`
	RelaxEmptySchemas *bool   `json:"relaxEmptySchemas"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Apply returns cfg with every non-nil override written over it. Blank
// strings fall back to the defaults again.
func (o *RequestOverrides) Apply(cfg config.RequestConfig) config.RequestConfig {
	if o == nil {
		return cfg
	}
	set(&cfg.APIEndpoint, o.APIEndpoint)
	set(&cfg.APIVersion, o.APIVersion)
	set(&cfg.APIKey, o.APIKey)
	set(&cfg.HostHeader, o.HostHeader)
	set(&cfg.Temperature, o.Temperature)
	set(&cfg.TopP, o.TopP)
	set(&cfg.ToolChoice, o.ToolChoice)
	set(&cfg.FrequencyPenalty, o.FrequencyPenalty)
	set(&cfg.PresencePenalty, o.PresencePenalty)
	set(&cfg.MaxOutputTokens, o.MaxOutputTokens)
	set(&cfg.ReasoningEnabled, o.ReasoningEnabled)
	set(&cfg.ReasoningEffort, o.ReasoningEffort)
	set(&cfg.StructuredOutputEnabled, o.StructuredOutputEnabled)
	set(&cfg.StructuredOutputSchema, o.StructuredOutputSchema)
	set(&cfg.Model, o.Model)
	set(&cfg.UseAgentSettings, o.UseAgentSettings)
	set(&cfg.RelaxEmptySchemas, o.RelaxEmptySchemas)
	cfg.Sanitize()
	return cfg
}
