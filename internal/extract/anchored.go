package extract

import (
	"regexp"
	"unicode"
)

// AnchorKeys lists the literal keys the key-anchored fallback looks for.
func AnchorKeys(mode Mode) []string {
	if mode == ModeTools {
		return []string{"tools"}
	}
	return []string{"messages", "conversation", "threadMessages", "thread.messages"}
}

// ExtractArrayByKeys scans raw text for `"key":` followed by an array and
// returns the first such array that parses. It works on text that is not
// valid JSON as a whole, such as a truncated or escaped page dump.
func ExtractArrayByKeys(text string, keys []string) []any {
	for _, key := range keys {
		re := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:`)
		for _, loc := range re.FindAllStringIndex(text, -1) {
			raw := readArrayAfter(text, loc[1])
			if raw == "" {
				continue
			}
			if arr, ok := mustArray(ParseStrict(raw)); ok {
				return arr
			}
		}
	}
	return nil
}

func mustArray(v any, ok bool) ([]any, bool) {
	if !ok {
		return nil, false
	}
	arr, isArr := v.([]any)
	return arr, isArr
}

func readArrayAfter(text string, idx int) string {
	i := idx
	for i < len(text) && unicode.IsSpace(rune(text[i])) {
		i++
	}
	if i >= len(text) || text[i] != '[' {
		return ""
	}
	return readBalanced(text, i)
}
