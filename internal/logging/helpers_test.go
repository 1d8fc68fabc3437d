package logging

import "testing"

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sk-1234567890abcd", "sk-1...abcd"},
		{"abcdef", "ab...ef"},
		{"abc", "a...c"},
		{"ab", "ab"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.in); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskURL(t *testing.T) {
	got := MaskURL("https://api.openai.com/v1/chat/completions?api-version=2024-02-01&api-key=sk-1234567890abcd")
	want := "https://api.openai.com/v1/chat/completions?api-version=2024-02-01&api-key=sk-1...abcd"
	if got != want {
		t.Errorf("MaskURL = %q, want %q", got, want)
	}
	if got := MaskURL("https://host/path"); got != "https://host/path" {
		t.Errorf("MaskURL without query = %q", got)
	}
}

func TestMaskHeaderValue(t *testing.T) {
	if got := MaskHeaderValue("Authorization", "Bearer sk-1234567890abcd"); got != "Bearer sk-1...abcd" {
		t.Errorf("authorization = %q", got)
	}
	if got := MaskHeaderValue("Host", "api.openai.com"); got != "api.openai.com" {
		t.Errorf("host = %q", got)
	}
}
