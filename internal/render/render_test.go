package render

import (
	"strings"
	"testing"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

func testConfig() config.RequestConfig {
	cfg := config.NewDefaultRequestConfig()
	cfg.APIEndpoint = "https://example.openai.azure.com/openai/deployments/gpt/chat/completions"
	cfg.APIVersion = "2025-04-01-preview"
	cfg.APIKey = "secret"
	cfg.HostHeader = "example.openai.azure.com"
	return cfg
}

func TestFullURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://h/v1/chat", "https://h/v1/chat?api-version=V&api-key=K"},
		{"https://h/v1/chat?x=1", "https://h/v1/chat?x=1&api-version=V&api-key=K"},
		{"h/v1/chat", "https://h/v1/chat?api-version=V&api-key=K"},
	}
	for _, tt := range tests {
		if got := FullURL(tt.endpoint, "V", "K"); got != tt.want {
			t.Errorf("FullURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeGeneratorURL(t *testing.T) {
	if got := NormalizeGeneratorURL(" "); got != config.DefaultGeneratorURL {
		t.Errorf("blank = %q", got)
	}
	if got := NormalizeGeneratorURL("localhost:3000/gen"); got != "https://localhost:3000/gen" {
		t.Errorf("no scheme = %q", got)
	}
	if got := NormalizeGeneratorURL("http://x"); got != "http://x" {
		t.Errorf("http kept = %q", got)
	}
}

func TestCurl(t *testing.T) {
	got := Curl(testConfig(), `{"a":"it's","b":[1]}`)
	want := "curl --location 'https://example.openai.azure.com/openai/deployments/gpt/chat/completions?api-version=2025-04-01-preview&api-key=secret' \\\n" +
		"--header 'Host: example.openai.azure.com' \\\n" +
		"--header 'Content-Type: application/json' \\\n" +
		"--data '{\n" +
		"    \"a\": \"it'\\''s\",\n" +
		"    \"b\": [\n" +
		"        1\n" +
		"    ]\n" +
		"}'"
	if got != want {
		t.Errorf("Curl =\n%s\nwant\n%s", got, want)
	}
}

func TestPowerShell(t *testing.T) {
	got := PowerShell(testConfig(), `{"a":"it's"}`)
	want := "$headers = @{\n" +
		"    \"Host\" = \"example.openai.azure.com\"\n" +
		"    \"Content-Type\" = \"application/json\"\n" +
		"}\n" +
		"\n" +
		"$body = @'\n" +
		"{\n" +
		"  \"a\": \"it's\"\n" +
		"}\n" +
		"'@\n" +
		"\n" +
		"Invoke-RestMethod -Uri \"https://example.openai.azure.com/openai/deployments/gpt/chat/completions?api-version=2025-04-01-preview&api-key=secret\" -Method Post -Headers $headers -Body $body"
	if got != want {
		t.Errorf("PowerShell =\n%s\nwant\n%s", got, want)
	}
}

func TestRender(t *testing.T) {
	body := `{"temperature":0.1,"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}],"tools":[{"type":"function","function":{"name":"x","description":"","parameters":{}}}]}`
	res := Render(testConfig(), body)
	if res.MessageCount != 2 || res.ToolCount != 1 {
		t.Errorf("counts = %d, %d; want 2, 1", res.MessageCount, res.ToolCount)
	}
	if res.Tokens <= 0 {
		t.Errorf("tokens = %d", res.Tokens)
	}
	if !strings.HasPrefix(res.Body, "{\n  \"temperature\": 0.1,") {
		t.Errorf("body not 2-space indented in order:\n%s", res.Body)
	}
	if res.Pick(FormatCurl) != res.Curl || res.Pick(FormatPowerShell) != res.PowerShell || res.Pick(FormatBody) != res.Body {
		t.Error("Pick returned the wrong rendering")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCurl, "PS": FormatPowerShell, "body": FormatBody} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) succeeded")
	}
}
