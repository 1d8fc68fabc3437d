package studio

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	unknownFunction   = "unknown_function"
	defaultParameters = `{"type":"object","properties":{},"required":[]}`
)

// ToolsInput is a parsed tools payload: a bare array, or the tools of an
// agent node together with the agent's own settings.
type ToolsInput struct {
	Tools gjson.Result
	Agent *AgentSettings
}

// Count is the number of tools in the input.
func (in ToolsInput) Count() int {
	if !in.Tools.IsArray() {
		return 0
	}
	return len(in.Tools.Array())
}

// ParseToolsInput accepts a tools array or an agent node
// ({type:"agent", config:{tools:[...]}}).
func ParseToolsInput(raw string) (ToolsInput, error) {
	root, ok := parseJSON(raw)
	if !ok {
		return ToolsInput{}, &InputError{Kind: "Tools"}
	}
	if root.IsArray() {
		return ToolsInput{Tools: root}, nil
	}
	if root.IsObject() {
		tools := root.Get("config.tools")
		if root.Get("type").String() == "agent" || tools.IsArray() {
			if !tools.IsArray() {
				tools = gjson.Parse("[]")
			}
			return ToolsInput{Tools: tools, Agent: readAgentSettings(root)}, nil
		}
	}
	return ToolsInput{}, &InputError{Kind: "Tools"}
}

func isOpenAITool(tool gjson.Result) bool {
	return tool.Get("type").String() == "function" && tool.Get("function").IsObject()
}

func functionName(tool gjson.Result) string {
	if name := firstString(tool, "alias", "name"); name != "" {
		return name
	}
	return unknownFunction
}

// ConvertTool maps one studio tool to {type:"function", function:{name,
// description, parameters}}. A tool that already has that shape is returned
// unchanged. With relax set, parameters go through RelaxEmptySchemas.
func ConvertTool(tool gjson.Result, relax bool) string {
	if isOpenAITool(tool) {
		return tool.Raw
	}

	params := defaultParameters
	if schema := tool.Get("config.schema"); schema.IsObject() {
		params = schema.Raw
	} else if existing := tool.Get("function.parameters"); existing.IsObject() {
		params = existing.Raw
	}
	if relax {
		params = RelaxEmptySchemas(params)
	}

	out := `{"type":"function","function":{}}`
	out, _ = sjson.Set(out, "function.name", functionName(tool))
	out, _ = sjson.Set(out, "function.description", tool.Get("description").String())
	out, _ = sjson.SetRaw(out, "function.parameters", params)
	return out
}

// ConvertTools converts every object element of tools and returns the raw
// JSON array.
func ConvertTools(tools gjson.Result, relax bool) string {
	var out []string
	tools.ForEach(func(_, tool gjson.Result) bool {
		if tool.IsObject() {
			out = append(out, ConvertTool(tool, relax))
		}
		return true
	})
	return joinRaw(out)
}
