// Package config holds the YAML configuration of the generator service: the
// request record used to build OpenAI chat-completions bodies, extraction
// tunables, and storage settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultAPIVersion   = "2024-02-01"
	DefaultAPIKey       = "<Your openai key>"
	DefaultHostHeader   = "api.openai.com"
	DefaultGeneratorURL = "https://openai-curl-generator.vercel.app/"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	Host          string `yaml:"host" json:"-"`
	Port          int    `yaml:"port" json:"-"`
	Debug         bool   `yaml:"debug" json:"debug"`
	LoggingToFile bool   `yaml:"logging-to-file" json:"logging-to-file"`
	LogsDir       string `yaml:"logs-dir" json:"logs-dir"`

	// GeneratorURL is opened by --open and advertised to capture clients.
	GeneratorURL string `yaml:"generator-url" json:"generator-url"`

	// AllowedOrigins lists CORS origins accepted by the API. "*" allows any.
	AllowedOrigins []string `yaml:"allowed-origins" json:"allowed-origins"`

	Request      RequestConfig    `yaml:"request" json:"request"`
	Extraction   ExtractionConfig `yaml:"extraction" json:"extraction"`
	CaptureStore CaptureStore     `yaml:"capture-store" json:"capture-store"`
	Archive      ObjectArchive    `yaml:"object-archive" json:"object-archive"`
}

// RequestConfig is the user-editable record the request body and the
// rendered HTTP commands are built from.
type RequestConfig struct {
	APIEndpoint      string  `yaml:"api-endpoint" json:"apiEndpoint"`
	APIVersion       string  `yaml:"api-version" json:"apiVersion"`
	APIKey           string  `yaml:"api-key" json:"apiKey"`
	HostHeader       string  `yaml:"host-header" json:"hostHeader"`
	Temperature      float64 `yaml:"temperature" json:"temperature"`
	TopP             float64 `yaml:"top-p" json:"topP"`
	ToolChoice       string  `yaml:"tool-choice" json:"toolChoice"`
	FrequencyPenalty float64 `yaml:"frequency-penalty" json:"frequencyPenalty"`
	PresencePenalty  float64 `yaml:"presence-penalty" json:"presencePenalty"`
	MaxOutputTokens  int     `yaml:"max-output-tokens" json:"maxOutputTokens"`

	ReasoningEnabled bool   `yaml:"reasoning-enabled" json:"reasoningEnabled"`
	ReasoningEffort  string `yaml:"reasoning-effort" json:"reasoningEffort"`

	StructuredOutputEnabled bool   `yaml:"structured-output-enabled" json:"structuredOutputEnabled"`
	StructuredOutputSchema  string `yaml:"structured-output-schema" json:"structuredOutputSchema"`

	// Model only selects the tokenizer used for the body token estimate.
	Model string `yaml:"model" json:"model"`

	// UseAgentSettings lets a captured agent node override temperature,
	// reasoning effort and structured output.
	UseAgentSettings bool `yaml:"use-agent-settings" json:"useAgentSettings"`

	// RelaxEmptySchemas turns additionalProperties:false into true on object
	// schemas that declare no properties.
	RelaxEmptySchemas bool `yaml:"relax-empty-schemas" json:"relaxEmptySchemas"`
}

// ExtractionConfig bounds the host-page scan.
type ExtractionConfig struct {
	GlobalScanLimit int     `yaml:"global-scan-limit" json:"global-scan-limit"`
	MinBlockLength  int     `yaml:"min-block-length" json:"min-block-length"`
	MinViewerLength int     `yaml:"min-viewer-length" json:"min-viewer-length"`
	MinGlobalSize   int     `yaml:"min-global-size" json:"min-global-size"`
	MaxGlobalSize   int     `yaml:"max-global-size" json:"max-global-size"`
	MinToolsRatio   float64 `yaml:"min-tools-ratio" json:"min-tools-ratio"`
}

// CaptureStore selects where captured tools/messages are kept. A non-empty
// DSN selects Postgres, otherwise SQLite at DBPath.
type CaptureStore struct {
	DBPath       string `yaml:"db-path" json:"db-path"`
	DSN          string `yaml:"dsn" json:"-"`
	Schema       string `yaml:"schema" json:"schema"`
	HistoryLimit int    `yaml:"history-limit" json:"history-limit"`
}

// ObjectArchive optionally mirrors every capture to an S3-compatible bucket.
type ObjectArchive struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access-key" json:"-"`
	SecretKey string `yaml:"secret-key" json:"-"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	UseSSL    bool   `yaml:"use-ssl" json:"use-ssl"`
}

// Enabled reports whether enough is configured to reach a bucket.
func (a ObjectArchive) Enabled() bool {
	return strings.TrimSpace(a.Endpoint) != "" && strings.TrimSpace(a.Bucket) != ""
}

// NewDefaultRequestConfig returns the generator's built-in request defaults.
func NewDefaultRequestConfig() RequestConfig {
	return RequestConfig{
		APIEndpoint:       DefaultAPIEndpoint,
		APIVersion:        DefaultAPIVersion,
		APIKey:            DefaultAPIKey,
		HostHeader:        DefaultHostHeader,
		Temperature:       0.1,
		TopP:              0.1,
		ToolChoice:        "auto",
		MaxOutputTokens:   1000,
		ReasoningEffort:   "medium",
		Model:             "gpt-4o",
		UseAgentSettings:  true,
		RelaxEmptySchemas: true,
	}
}

// NewDefaultExtractionConfig returns the scan bounds used when none are set.
func NewDefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		GlobalScanLimit: 40,
		MinBlockLength:  50,
		MinViewerLength: 100,
		MinGlobalSize:   500,
		MaxGlobalSize:   5_000_000,
		MinToolsRatio:   0.5,
	}
}

// NewDefaultConfig creates a Config that works without a config file.
func NewDefaultConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           8327,
		GeneratorURL:   DefaultGeneratorURL,
		AllowedOrigins: []string{"*"},
		Request:        NewDefaultRequestConfig(),
		Extraction:     NewDefaultExtractionConfig(),
		CaptureStore: CaptureStore{
			DBPath:       "~/.curlgen/captures.db",
			Schema:       "public",
			HistoryLimit: 50,
		},
		Archive: ObjectArchive{
			Prefix: "captures/",
			UseSSL: true,
		},
	}
}

// GenerateDefaultConfigYAML renders NewDefaultConfig as YAML for --init.
func GenerateDefaultConfigYAML() []byte {
	data, err := yaml.Marshal(NewDefaultConfig())
	if err != nil {
		return []byte("port: 8327\n")
	}
	return data
}

// LoadConfig reads a YAML configuration file. A missing file is an error.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads YAML from configFile. When optional is true a
// missing or empty file yields the defaults.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && (os.IsNotExist(err) || errors.Is(err, syscall.EISDIR)) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if optional && len(strings.TrimSpace(string(data))) == 0 {
		return NewDefaultConfig(), nil
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of the defaults and sanitizes the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize restores defaults for values that would make the pipeline
// misbehave and trims string settings.
func (c *Config) Sanitize() {
	def := NewDefaultConfig()
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = def.Port
	}
	c.GeneratorURL = strings.TrimSpace(c.GeneratorURL)
	c.Request.Sanitize()

	e := &c.Extraction
	if e.GlobalScanLimit <= 0 {
		e.GlobalScanLimit = def.Extraction.GlobalScanLimit
	}
	if e.MinBlockLength < 0 {
		e.MinBlockLength = def.Extraction.MinBlockLength
	}
	if e.MinViewerLength < 0 {
		e.MinViewerLength = def.Extraction.MinViewerLength
	}
	if e.MaxGlobalSize <= 0 || e.MaxGlobalSize < e.MinGlobalSize {
		e.MinGlobalSize = def.Extraction.MinGlobalSize
		e.MaxGlobalSize = def.Extraction.MaxGlobalSize
	}
	if e.MinToolsRatio <= 0 || e.MinToolsRatio > 1 {
		e.MinToolsRatio = def.Extraction.MinToolsRatio
	}

	if c.CaptureStore.HistoryLimit <= 0 {
		c.CaptureStore.HistoryLimit = def.CaptureStore.HistoryLimit
	}
	if strings.TrimSpace(c.CaptureStore.Schema) == "" {
		c.CaptureStore.Schema = def.CaptureStore.Schema
	}
}

// Sanitize fills blank string fields with the generator defaults.
func (r *RequestConfig) Sanitize() {
	def := NewDefaultRequestConfig()
	r.APIEndpoint = strings.TrimSpace(r.APIEndpoint)
	if r.APIEndpoint == "" {
		r.APIEndpoint = def.APIEndpoint
	}
	if strings.TrimSpace(r.APIVersion) == "" {
		r.APIVersion = def.APIVersion
	}
	if strings.TrimSpace(r.APIKey) == "" {
		r.APIKey = def.APIKey
	}
	if strings.TrimSpace(r.HostHeader) == "" {
		r.HostHeader = def.HostHeader
	}
	if strings.TrimSpace(r.ToolChoice) == "" {
		r.ToolChoice = def.ToolChoice
	}
	if r.MaxOutputTokens <= 0 {
		r.MaxOutputTokens = def.MaxOutputTokens
	}
	if strings.TrimSpace(r.ReasoningEffort) == "" {
		r.ReasoningEffort = def.ReasoningEffort
	}
	if strings.TrimSpace(r.Model) == "" {
		r.Model = def.Model
	}
}

// ApplyEnv overlays environment variables onto the loaded file values.
// lookup returns the first non-empty value among keys.
func (c *Config) ApplyEnv(lookup func(keys ...string) (string, bool)) {
	if v, ok := lookup("OPENAI_API_KEY", "CURLGEN_API_KEY"); ok {
		c.Request.APIKey = v
	}
	if v, ok := lookup("CURLGEN_API_ENDPOINT"); ok {
		c.Request.APIEndpoint = v
	}
	if v, ok := lookup("CURLGEN_HOST_HEADER"); ok {
		c.Request.HostHeader = v
	}
	if v, ok := lookup("PGSTORE_DSN", "pgstore_dsn"); ok {
		c.CaptureStore.DSN = v
	}
	if v, ok := lookup("PGSTORE_SCHEMA", "pgstore_schema"); ok {
		c.CaptureStore.Schema = v
	}
	if v, ok := lookup("OBJECTSTORE_ENDPOINT", "objectstore_endpoint"); ok {
		c.Archive.Endpoint = v
	}
	if v, ok := lookup("OBJECTSTORE_ACCESS_KEY", "objectstore_access_key"); ok {
		c.Archive.AccessKey = v
	}
	if v, ok := lookup("OBJECTSTORE_SECRET_KEY", "objectstore_secret_key"); ok {
		c.Archive.SecretKey = v
	}
	if v, ok := lookup("OBJECTSTORE_BUCKET", "objectstore_bucket"); ok {
		c.Archive.Bucket = v
	}
}

// EnvLookup reads the process environment, skipping blank values.
func EnvLookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// ExpandPath resolves a leading "~" and $VARS.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(os.ExpandEnv(path)), nil
}
