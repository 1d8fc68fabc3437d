package studio

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
)

const defaultSchemaName = "structured_output"

// BuildRequestBody assembles the chat-completions body from cfg and the
// converted messages and tools arrays. Fields are written in a fixed order:
// temperature, top_p, frequency_penalty, presence_penalty,
// max_completion_tokens, tool_choice, messages, tools, then the optional
// reasoning_effort and response_format. An empty tools array is omitted.
func BuildRequestBody(cfg config.RequestConfig, messages, tools string) (string, error) {
	body := `{}`
	body, _ = sjson.Set(body, "temperature", cfg.Temperature)
	body, _ = sjson.Set(body, "top_p", cfg.TopP)
	body, _ = sjson.Set(body, "frequency_penalty", cfg.FrequencyPenalty)
	body, _ = sjson.Set(body, "presence_penalty", cfg.PresencePenalty)
	body, _ = sjson.Set(body, "max_completion_tokens", cfg.MaxOutputTokens)
	body, _ = sjson.Set(body, "tool_choice", cfg.ToolChoice)

	var err error
	if body, err = sjson.SetRaw(body, "messages", messages); err != nil {
		return "", fmt.Errorf("set messages: %w", err)
	}
	if t := gjson.Parse(tools); t.IsArray() && len(t.Array()) > 0 {
		if body, err = sjson.SetRaw(body, "tools", tools); err != nil {
			return "", fmt.Errorf("set tools: %w", err)
		}
	}

	if cfg.ReasoningEnabled && cfg.ReasoningEffort != "" {
		body, _ = sjson.Set(body, "reasoning_effort", cfg.ReasoningEffort)
	}
	if cfg.StructuredOutputEnabled && strings.TrimSpace(cfg.StructuredOutputSchema) != "" {
		format, err := responseFormat(cfg.StructuredOutputSchema)
		if err != nil {
			return "", err
		}
		body, _ = sjson.SetRaw(body, "response_format", format)
	}
	return body, nil
}

// responseFormat wraps a user schema as a strict json_schema response format.
// The schema may be bare or already wrapped as {name, schema}.
func responseFormat(raw string) (string, error) {
	root, ok := parseJSON(raw)
	if !ok || !root.IsObject() {
		return "", fmt.Errorf("structured output schema: %w", ErrInvalidJSON)
	}
	name := defaultSchemaName
	schema := root.Raw
	if inner := root.Get("schema"); inner.IsObject() {
		schema = inner.Raw
		if n := firstString(root, "name"); n != "" {
			name = n
		}
	}

	out := `{"type":"json_schema","json_schema":{}}`
	out, _ = sjson.Set(out, "json_schema.name", name)
	out, _ = sjson.Set(out, "json_schema.strict", true)
	out, _ = sjson.SetRaw(out, "json_schema.schema", FixStrictSchema(schema))
	return out, nil
}

// Output is a generated request body with what went into it.
type Output struct {
	Body         string
	MessageCount int
	ToolCount    int
	AgentName    string

	// Request is cfg after agent-node overrides were applied.
	Request config.RequestConfig
}

// Generate validates and converts the tools and messages inputs and builds
// the request body. Blank tools input is an empty tools array.
func Generate(toolsJSON, messagesJSON string, cfg config.RequestConfig) (*Output, error) {
	in := ToolsInput{Tools: gjson.Parse("[]")}
	if strings.TrimSpace(toolsJSON) != "" {
		var err error
		if in, err = ParseToolsInput(toolsJSON); err != nil {
			return nil, err
		}
	}
	msgs, err := ParseMessagesInput(messagesJSON)
	if err != nil {
		return nil, err
	}

	if cfg.UseAgentSettings {
		cfg = in.Agent.Apply(cfg)
	}

	tools := ConvertTools(in.Tools, cfg.RelaxEmptySchemas)
	converted := ConvertMessages(msgs, BuildToolNameMap(in.Tools))
	msgCount := len(gjson.Parse(converted).Array())
	if msgCount == 0 {
		return nil, ErrNoMessages
	}

	body, err := BuildRequestBody(cfg, converted, tools)
	if err != nil {
		return nil, err
	}
	out := &Output{
		Body:         body,
		MessageCount: msgCount,
		ToolCount:    len(gjson.Parse(tools).Array()),
		Request:      cfg,
	}
	if in.Agent != nil {
		out.AgentName = in.Agent.Name
	}
	log.WithFields(log.Fields{"messages": out.MessageCount, "tools": out.ToolCount}).Debug("studio: request body generated")
	return out, nil
}
