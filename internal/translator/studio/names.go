package studio

import "github.com/tidwall/gjson"

// BuildToolNameMap maps every name and alias a tool is known by to the
// function name it is declared under in the converted tools array. Later
// entries overwrite earlier ones on collision.
func BuildToolNameMap(tools gjson.Result) map[string]string {
	names := make(map[string]string)
	tools.ForEach(func(_, tool gjson.Result) bool {
		if !tool.IsObject() {
			return true
		}
		if isOpenAITool(tool) {
			if name := tool.Get("function.name").String(); name != "" {
				names[name] = name
			}
			return true
		}
		final := functionName(tool)
		if name := firstString(tool, "name"); name != "" {
			names[name] = final
		}
		if alias := firstString(tool, "alias"); alias != "" {
			names[alias] = final
		}
		return true
	})
	return names
}
