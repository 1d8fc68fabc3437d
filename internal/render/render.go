// Package render turns a request body into the HTTP commands users paste
// into a terminal: a bash curl command and a PowerShell Invoke-RestMethod
// script.
package render

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/util"
)

// Format names one rendering of the body.
type Format string

const (
	FormatBody       Format = "body"
	FormatCurl       Format = "curl"
	FormatPowerShell Format = "powershell"
)

// ParseFormat accepts body, curl, powershell (or ps).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "curl":
		return FormatCurl, nil
	case "body", "json":
		return FormatBody, nil
	case "powershell", "ps":
		return FormatPowerShell, nil
	}
	return "", fmt.Errorf("render: unknown format %q", s)
}

// WithScheme prefixes https:// when u has no scheme.
func WithScheme(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "https://" + u
}

// NormalizeGeneratorURL falls back to the hosted generator for a blank value.
func NormalizeGeneratorURL(u string) string {
	if strings.TrimSpace(u) == "" {
		return config.DefaultGeneratorURL
	}
	return WithScheme(u)
}

// FullURL appends api-version and api-key to endpoint, joining with & when
// the endpoint already has a query.
func FullURL(endpoint, version, key string) string {
	endpoint = WithScheme(endpoint)
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "api-version=" + version + "&api-key=" + key
}

// Curl renders body (any JSON) as a bash curl command. The body is indented
// four spaces and every ' is closed, escaped and reopened.
func Curl(cfg config.RequestConfig, body string) string {
	pretty := json.IndentString(body, "    ")
	escaped := strings.ReplaceAll(pretty, "'", `'\''`)
	var b strings.Builder
	b.WriteString("curl --location '" + FullURL(cfg.APIEndpoint, cfg.APIVersion, cfg.APIKey) + "' \\\n")
	b.WriteString("--header 'Host: " + cfg.HostHeader + "' \\\n")
	b.WriteString("--header 'Content-Type: application/json' \\\n")
	b.WriteString("--data '" + escaped + "'")
	return b.String()
}

// PowerShell renders body as a here-string script for Invoke-RestMethod,
// indented two spaces.
func PowerShell(cfg config.RequestConfig, body string) string {
	var b strings.Builder
	b.WriteString("$headers = @{\n")
	b.WriteString(`    "Host" = "` + cfg.HostHeader + "\"\n")
	b.WriteString(`    "Content-Type" = "application/json"` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("$body = @'\n")
	b.WriteString(json.IndentString(body, "  "))
	b.WriteString("\n'@\n\n")
	b.WriteString(`Invoke-RestMethod -Uri "` + FullURL(cfg.APIEndpoint, cfg.APIVersion, cfg.APIKey) + `" -Method Post -Headers $headers -Body $body`)
	return b.String()
}

// Result is every rendering of one body plus its stats.
type Result struct {
	Body         string `json:"body"`
	Curl         string `json:"curl"`
	PowerShell   string `json:"powershell"`
	URL          string `json:"url"`
	MessageCount int    `json:"messageCount"`
	ToolCount    int    `json:"toolCount"`
	Tokens       int64  `json:"tokens"`
	AgentName    string `json:"agentName,omitempty"`
}

// Render produces all formats of body for cfg.
func Render(cfg config.RequestConfig, body string) *Result {
	root := gjson.Parse(body)
	res := &Result{
		Body:         json.IndentString(body, "  "),
		Curl:         Curl(cfg, body),
		PowerShell:   PowerShell(cfg, body),
		URL:          FullURL(cfg.APIEndpoint, cfg.APIVersion, cfg.APIKey),
		MessageCount: len(root.Get("messages").Array()),
		ToolCount:    len(root.Get("tools").Array()),
		Tokens:       util.CountRequestTokens(cfg.Model, body),
	}
	log.WithFields(log.Fields{
		"url":      log.MaskURL(res.URL),
		"messages": res.MessageCount,
		"tools":    res.ToolCount,
		"tokens":   res.Tokens,
	}).Debug("render: commands generated")
	return res
}

// Pick returns the rendering named by f.
func (r *Result) Pick(f Format) string {
	switch f {
	case FormatBody:
		return r.Body
	case FormatPowerShell:
		return r.PowerShell
	}
	return r.Curl
}
