// Package util holds token counting for generated request bodies.
package util

import (
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tiktoken-go/tokenizer"
)

var (
	codecCache   = make(map[tokenizer.Encoding]tokenizer.Codec)
	codecCacheMu sync.RWMutex
)

// TokenEstimationThreshold is the text length above which counts are
// estimated from length instead of tokenized.
const TokenEstimationThreshold = 100_000

const tokensPerMessage = 3

// CountTokens counts text with the tokenizer of model.
func CountTokens(model, text string) int64 {
	enc, err := getCodec(encodingFor(model))
	if err != nil {
		return estimateTokens(text)
	}
	return countTokens(enc, text)
}

// CountRequestTokens estimates the prompt tokens of a chat-completions body:
// per-message overhead plus role and content, plus the tools array.
func CountRequestTokens(model, body string) int64 {
	enc, err := getCodec(encodingFor(model))
	if err != nil {
		return estimateTokens(body)
	}
	root := gjson.Parse(body)
	var total int64
	root.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		total += tokensPerMessage
		total += countTokensWithCache(enc, msg.Get("role").String(), ContentTokenCache)
		if c := msg.Get("content").String(); c != "" {
			total += countTokensWithCache(enc, c, ContentTokenCache)
		}
		msg.Get("tool_calls").ForEach(func(_, call gjson.Result) bool {
			total += countTokens(enc, call.Get("function.name").String())
			total += countTokens(enc, call.Get("function.arguments").String())
			return true
		})
		return true
	})
	if tools := root.Get("tools"); tools.IsArray() {
		total += countTokensWithCache(enc, tools.Raw, ToolTokenCache)
	}
	if format := root.Get("response_format"); format.Exists() {
		total += countTokens(enc, format.Raw)
	}
	if total > 0 {
		total += tokensPerMessage
	}
	return total
}

func countTokens(enc tokenizer.Codec, s string) int64 {
	if len(s) > TokenEstimationThreshold {
		return estimateTokens(s)
	}
	ids, _, _ := enc.Encode(s)
	return int64(len(ids))
}

func countTokensWithCache(enc tokenizer.Codec, s string, cache *TokenCache) int64 {
	if n, ok := cache.Get(s); ok {
		return int64(n)
	}
	n := countTokens(enc, s)
	cache.Set(s, int(n))
	return n
}

func estimateTokens(s string) int64 {
	return int64(float64(len(s)) / contentDivisor(s))
}

// contentDivisor guesses characters per token from the first 1KB.
func contentDivisor(s string) float64 {
	sample := s
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	trimmed := strings.TrimSpace(sample)
	if len(trimmed) >= 2 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return 4.0
	}
	return 3.5
}

func getCodec(encoding tokenizer.Encoding) (tokenizer.Codec, error) {
	codecCacheMu.RLock()
	codec, ok := codecCache[encoding]
	codecCacheMu.RUnlock()
	if ok {
		return codec, nil
	}

	codecCacheMu.Lock()
	defer codecCacheMu.Unlock()
	if codec, ok := codecCache[encoding]; ok {
		return codec, nil
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	codecCache[encoding] = codec
	return codec, nil
}

// encodingFor picks o200k_base for the gpt-4o/gpt-5/o-series family and
// cl100k_base for older GPT-4 and 3.5 models.
func encodingFor(model string) tokenizer.Encoding {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gpt-5"),
		strings.Contains(lower, "gpt-4o"),
		strings.Contains(lower, "gpt-4.1"),
		strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"),
		strings.HasPrefix(lower, "o4"):
		return tokenizer.O200kBase
	case strings.Contains(lower, "gpt-4"),
		strings.Contains(lower, "gpt-3.5"),
		strings.Contains(lower, "turbo"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}
