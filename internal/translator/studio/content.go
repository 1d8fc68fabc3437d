package studio

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
)

// NormalizeContent flattens message content to a string. Text parts of an
// array are joined with newlines and other parts dropped; objects are
// serialized; null, false, 0 and missing become "".
func NormalizeContent(content gjson.Result) string {
	switch content.Type {
	case gjson.String:
		return content.Str
	case gjson.Null, gjson.False:
		return ""
	case gjson.True:
		return "true"
	case gjson.Number:
		if content.Num == 0 {
			return ""
		}
		return strconv.FormatFloat(content.Num, 'f', -1, 64)
	}
	if content.IsArray() {
		var parts []string
		content.ForEach(func(_, item gjson.Result) bool {
			if item.Get("type").String() != "text" {
				return true
			}
			if text := item.Get("text"); isTruthy(text) {
				parts = append(parts, text.String())
			}
			return true
		})
		return strings.Join(parts, "\n")
	}
	if content.IsObject() {
		return string(json.Compact([]byte(content.Raw)))
	}
	return ""
}

func isTruthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.JSON:
		return true
	case gjson.True:
		return true
	}
	return false
}
