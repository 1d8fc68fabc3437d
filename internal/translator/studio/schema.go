package studio

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RelaxEmptySchemas rewrites additionalProperties:false to true on every
// object schema whose properties map is present but empty. Such a schema
// accepts no payload at all. Nested properties and array items are walked;
// anything that is not an object is returned unchanged.
func RelaxEmptySchemas(schema string) string {
	node := gjson.Parse(schema)
	if !node.IsObject() {
		return schema
	}
	out := rewriteChildren(schema, node, RelaxEmptySchemas)
	props := node.Get("properties")
	if isType(node, "object") && props.IsObject() && isEmptyObject(props) &&
		node.Get("additionalProperties").Type == gjson.False {
		out, _ = sjson.Set(out, "additionalProperties", true)
	}
	return out
}

// FixStrictSchema forces strict structured-output rules on schema: every
// object node lists all of its properties as required and rejects
// additional properties. Array items are fixed recursively. Non-object
// input passes through unchanged.
func FixStrictSchema(schema string) string {
	node := gjson.Parse(schema)
	if !node.IsObject() {
		return schema
	}
	out := rewriteChildren(schema, node, FixStrictSchema)
	if !isType(node, "object") {
		return out
	}
	keys := make([]string, 0)
	node.Get("properties").ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	out, _ = sjson.Set(out, "required", keys)
	out, _ = sjson.Set(out, "additionalProperties", false)
	return out
}

// rewriteChildren applies fn to each schema under properties and items,
// keeping key order.
func rewriteChildren(raw string, node gjson.Result, fn func(string) string) string {
	out := raw
	if props := node.Get("properties"); props.IsObject() && !isEmptyObject(props) {
		out, _ = sjson.SetRaw(out, "properties", mapObject(props, fn))
	}
	switch items := node.Get("items"); {
	case items.IsObject():
		out, _ = sjson.SetRaw(out, "items", fn(items.Raw))
	case items.IsArray():
		out, _ = sjson.SetRaw(out, "items", mapArray(items, fn))
	}
	return out
}

func mapObject(obj gjson.Result, fn func(string) string) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	obj.ForEach(func(k, v gjson.Result) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(k.Raw)
		b.WriteByte(':')
		b.WriteString(fn(v.Raw))
		return true
	})
	b.WriteByte('}')
	return b.String()
}

func mapArray(arr gjson.Result, fn func(string) string) string {
	var items []string
	arr.ForEach(func(_, v gjson.Result) bool {
		items = append(items, fn(v.Raw))
		return true
	})
	return joinRaw(items)
}

// isType matches "type": "want" and "type": [..., "want", ...].
func isType(node gjson.Result, want string) bool {
	t := node.Get("type")
	if t.IsArray() {
		for _, v := range t.Array() {
			if v.String() == want {
				return true
			}
		}
		return false
	}
	return t.String() == want
}

func isEmptyObject(obj gjson.Result) bool {
	empty := true
	obj.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}
