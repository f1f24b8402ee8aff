// Package ollama provides a text generator backed by a local or remote
// Ollama server through its OpenAI-compatible endpoint.
package ollama

import (
	"github.com/mindtuner/mindtuner-go/pkg/llm/openai"
)

// Defaults for a local Ollama server.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "llama3.1"

	// placeholderKey is sent when no key is configured. Ollama ignores the
	// Authorization header unless it sits behind an authenticating proxy.
	placeholderKey = "ollama"
)

// Client is an Ollama LLM client implementing llm.Provider.
type Client struct {
	*openai.Client
}

// Config is the configuration for Ollama.
// APIKey: optional, only needed behind an authenticating proxy
// Model: model tag to run, defaults to "llama3.1"
// BaseURL: server address including the /v1 suffix, defaults to localhost
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new Ollama client. It never contacts the server; a
// missing model surfaces on the first generation call.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	key := cfg.APIKey
	if key == "" {
		key = placeholderKey
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	inner, err := openai.NewCompatibleClient("Ollama", &openai.Config{
		APIKey:  key,
		Model:   model,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: inner}, nil
}
