package studio

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
)

var executedPattern = regexp.MustCompile(`Executed \*\*([^*\s]+)\*\*`)

// now is replaced in tests.
var now = time.Now

// ConvertMessages turns studio messages into OpenAI chat messages in one
// left-to-right pass.
//
// Assistant messages with tool calls get normalized tool_calls and push each
// call id onto a FIFO queue. user, assistant and system messages pass with
// their content flattened, and are dropped when it is blank. Any other role
// is a node's tool response: it pops the oldest pending id and becomes a
// role:"tool" message, or is dropped when nothing is pending.
//
// Pairing is by order only. Responses that arrive out of order, or tool
// calls that interleave, are paired with the wrong call.
func ConvertMessages(messages gjson.Result, names map[string]string) string {
	list := messages.Array()
	var out []string
	var pending []string

	for i, msg := range list {
		content := NormalizeContent(msg.Get("content"))
		role := msg.Get("role").String()

		if calls := msg.Get("tool_calls"); role == "assistant" && calls.IsArray() && len(calls.Array()) > 0 {
			var next gjson.Result
			if i+1 < len(list) {
				next = list[i+1]
			}
			var converted []string
			for j, call := range calls.Array() {
				id, raw := convertToolCall(call, i, j, names, next)
				pending = append(pending, id)
				converted = append(converted, raw)
			}
			m := `{"role":"assistant"}`
			m, _ = sjson.Set(m, "content", content)
			m, _ = sjson.SetRaw(m, "tool_calls", joinRaw(converted))
			out = append(out, m)
			continue
		}

		switch role {
		case "user", "assistant", "system":
			if strings.TrimSpace(content) == "" {
				continue
			}
			m, _ := sjson.Set(`{}`, "role", role)
			m, _ = sjson.Set(m, "content", content)
			out = append(out, m)
		default:
			if len(pending) == 0 {
				continue
			}
			id := pending[0]
			pending = pending[1:]
			m := `{"role":"tool"}`
			m, _ = sjson.Set(m, "tool_call_id", id)
			m, _ = sjson.Set(m, "content", content)
			out = append(out, m)
		}
	}
	return joinRaw(out)
}

// convertToolCall normalizes one call of message i. It accepts both
// {id, name, args} and {id, function:{name, arguments}}.
func convertToolCall(call gjson.Result, i, j int, names map[string]string, next gjson.Result) (string, string) {
	id := call.Get("id").String()
	if id == "" {
		id = fmt.Sprintf("call_%d_%d_%d", now().UnixMilli(), i, j)
	}

	var name string
	var args gjson.Result
	if fn := call.Get("function"); fn.IsObject() {
		name = fn.Get("name").String()
		args = fn.Get("arguments")
	} else {
		name = call.Get("name").String()
		args = call.Get("args")
		if !args.Exists() {
			args = call.Get("arguments")
		}
	}

	if _, known := names[name]; !known && next.Exists() {
		if m := executedPattern.FindStringSubmatch(NormalizeContent(next.Get("content"))); m != nil {
			name = m[1]
		}
	}
	if mapped, ok := names[name]; ok {
		name = mapped
	}

	out := `{}`
	out, _ = sjson.Set(out, "id", id)
	out, _ = sjson.Set(out, "type", "function")
	out, _ = sjson.Set(out, "function.name", name)
	out, _ = sjson.Set(out, "function.arguments", argumentString(args))
	return id, out
}

func argumentString(args gjson.Result) string {
	switch {
	case args.Type == gjson.String:
		return args.Str
	case !args.Exists(), args.Type == gjson.Null:
		return "{}"
	}
	return string(json.Compact([]byte(args.Raw)))
}

// ParseMessagesInput requires a JSON array.
func ParseMessagesInput(raw string) (gjson.Result, error) {
	root, ok := parseJSON(raw)
	if !ok || !root.IsArray() {
		return gjson.Result{}, &InputError{Kind: "Messages"}
	}
	return root, nil
}
