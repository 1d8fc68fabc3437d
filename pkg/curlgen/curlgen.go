// Package curlgen provides the public API for embedding the curl generator as
// a library. It wraps the internal extractor, converter and renderer with a
// small, stable surface.
package curlgen

import (
	"context"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/api"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/cmd"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/render"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/translator/studio"
)

// Config is the application configuration.
type Config = config.Config

// RequestConfig holds the endpoint and sampling settings of generated requests.
type RequestConfig = config.RequestConfig

// Snapshot is the enumerated state of one page frame.
type Snapshot = extract.Snapshot

// Mode selects tools or messages extraction.
type Mode = extract.Mode

// ExtractResult is the outcome of one extraction run.
type ExtractResult = extract.Result

// Output is a generated chat-completions body.
type Output = studio.Output

// Rendered holds the body, curl and PowerShell renderings of one request.
type Rendered = render.Result

const (
	ModeTools    = extract.ModeTools
	ModeMessages = extract.ModeMessages
)

// NewConfig creates a new default configuration.
func NewConfig() *Config {
	return config.NewDefaultConfig()
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(path string) (*Config, error) {
	return config.LoadConfig(path)
}

// Extract runs the extractor configured by cfg over snap.
func Extract(cfg *Config, snap *Snapshot, mode Mode) ExtractResult {
	return api.NewExtractor(cfg.Extraction).Extract(snap, mode)
}

// Generate converts studio tools and messages JSON into a request body.
func Generate(cfg *Config, toolsJSON, messagesJSON string) (*Output, error) {
	return studio.Generate(toolsJSON, messagesJSON, cfg.Request)
}

// Render generates a request and renders it in every format.
func Render(cfg *Config, toolsJSON, messagesJSON string) (*Rendered, error) {
	out, err := Generate(cfg, toolsJSON, messagesJSON)
	if err != nil {
		return nil, err
	}
	res := render.Render(out.Request, out.Body)
	res.AgentName = out.AgentName
	return res, nil
}

// Run serves the HTTP API until ctx is cancelled. configPath, when set, is
// watched for changes.
func Run(ctx context.Context, cfg *Config, configPath string) error {
	return cmd.RunService(ctx, cfg, configPath, false)
}
