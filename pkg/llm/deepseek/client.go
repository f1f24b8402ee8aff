// Package deepseek provides the DeepSeek text generator.
//
// DeepSeek serves an OpenAI-compatible API, so the client reuses the OpenAI
// implementation with DeepSeek's endpoint and model defaults.
package deepseek

import (
	"github.com/mindtuner/mindtuner-go/pkg/llm/openai"
)

// Defaults for the DeepSeek API.
const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
)

// Client is a DeepSeek LLM client implementing llm.Provider.
type Client struct {
	*openai.Client
}

// Config is the configuration for DeepSeek LLM.
// APIKey: DeepSeek API key (required)
// Model: Model name to use, defaults to "deepseek-chat"
// BaseURL: API base URL, defaults to "https://api.deepseek.com"
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new DeepSeek LLM client. A nil cfg is treated as
// empty and fails for the missing API key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	inner, err := openai.NewCompatibleClient("DeepSeek", &openai.Config{
		APIKey:  cfg.APIKey,
		Model:   model,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: inner}, nil
}
