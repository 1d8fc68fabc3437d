package util

import (
	"strings"
	"testing"

	"github.com/tiktoken-go/tokenizer"
)

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		model string
		want  tokenizer.Encoding
	}{
		{"gpt-4o", tokenizer.O200kBase},
		{"gpt-5.2", tokenizer.O200kBase},
		{"o3-mini", tokenizer.O200kBase},
		{"gpt-4", tokenizer.Cl100kBase},
		{"gpt-3.5-turbo", tokenizer.Cl100kBase},
		{"", tokenizer.O200kBase},
	}
	for _, tt := range tests {
		if got := encodingFor(tt.model); got != tt.want {
			t.Errorf("encodingFor(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestCountTokens(t *testing.T) {
	for _, model := range []string{"gpt-4o", "gpt-4"} {
		n := CountTokens(model, "Hello, world!")
		if n < 2 || n > 10 {
			t.Errorf("CountTokens(%s) = %d, want a small positive count", model, n)
		}
	}
}

func TestCountRequestTokens(t *testing.T) {
	body := `{"temperature":0.1,"messages":[{"role":"system","content":"You are a helpful assistant."},{"role":"user","content":"hello"}],"tools":[{"type":"function","function":{"name":"lookup","description":"","parameters":{"type":"object","properties":{}}}}]}`
	withTools := CountRequestTokens("gpt-4o", body)
	if withTools <= 6 {
		t.Fatalf("CountRequestTokens = %d, want more than the message overhead", withTools)
	}
	noTools := CountRequestTokens("gpt-4o", `{"messages":[{"role":"system","content":"You are a helpful assistant."},{"role":"user","content":"hello"}]}`)
	if noTools >= withTools {
		t.Errorf("tools did not add tokens: %d >= %d", noTools, withTools)
	}
	if CountRequestTokens("gpt-4o", `{}`) != 0 {
		t.Error("empty body counted tokens")
	}
}

func TestLargeTextIsEstimated(t *testing.T) {
	text := strings.Repeat("a", TokenEstimationThreshold+1)
	got := CountTokens("gpt-4o", text)
	want := int64(float64(len(text)) / 3.5)
	if got != want {
		t.Errorf("CountTokens = %d, want estimate %d", got, want)
	}
}

func TestTokenCache(t *testing.T) {
	tc := NewTokenCache()
	if _, ok := tc.Get("x"); ok {
		t.Fatal("empty cache hit")
	}
	tc.Set("x", 3)
	tc.Set("x", 4)
	if n, ok := tc.Get("x"); !ok || n != 4 {
		t.Errorf("Get = %d, %v; want 4, true", n, ok)
	}
	if tc.Len() != 1 {
		t.Errorf("Len = %d, want 1", tc.Len())
	}
	for i := 0; i < numShards*maxEntriesPerShard*2; i++ {
		tc.Set(strings.Repeat("k", i+2), i)
	}
	if tc.Len() > numShards*maxEntriesPerShard {
		t.Errorf("Len = %d exceeds capacity", tc.Len())
	}
}
