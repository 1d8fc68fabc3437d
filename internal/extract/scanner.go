package extract

import (
	"iter"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
)

// readBalanced returns the run starting at text[start] ('{' or '[') up to
// the bracket that closes it, or "" when it never closes. Only the opening
// bracket type is counted; brackets inside string literals are ignored.
func readBalanced(text string, start int) string {
	opening := text[start]
	closing := byte('}')
	if opening == '[' {
		closing = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sliceSeq yields balanced runs left to right. A run's span is consumed
// before scanning resumes, so runs never overlap.
func sliceSeq(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < len(text); i++ {
			if text[i] != '{' && text[i] != '[' {
				continue
			}
			s := readBalanced(text, i)
			if s == "" {
				continue
			}
			if !yield(s) {
				return
			}
			i += len(s) - 1
		}
	}
}

// Slices returns every balanced {...} or [...] run of text.
func Slices(text string) []string {
	var out []string
	for s := range sliceSeq(text) {
		out = append(out, s)
	}
	return out
}

// Values lazily yields the parsed value of each slice of text that parses.
// Unparseable slices are skipped.
func Values(text string) iter.Seq[any] {
	return func(yield func(any) bool) {
		for s := range sliceSeq(text) {
			v, ok := ParseLenient(s)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ParseStrict decodes text as standard JSON.
func ParseStrict(text string) (any, bool) {
	var v any
	if err := json.UnmarshalString(text, &v); err != nil {
		return nil, false
	}
	return v, true
}

func unmarshalDetail(text string, v any) error {
	return json.UnmarshalString(text, v)
}

// ParseLenient decodes standard JSON, falling back to HuJSON (comments,
// trailing commas) for text a human edited.
func ParseLenient(text string) (any, bool) {
	if v, ok := ParseStrict(text); ok {
		return v, true
	}
	if !strings.ContainsAny(text, "/,") {
		return nil, false
	}
	std, err := hujson.Standardize([]byte(text))
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(std, &v); err != nil {
		return nil, false
	}
	return v, true
}
