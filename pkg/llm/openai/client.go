// Package openai implements llm.Provider on top of the OpenAI chat completions
// API. Any OpenAI-compatible endpoint can be targeted through BaseURL, which
// is how the deepseek and ollama packages reuse it.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mindtuner/mindtuner-go/pkg/llm"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4"

// Client sends chat completions to an OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string

	// name prefixes errors so that logs tell backends apart.
	name string
}

// Config configures a Client. Only APIKey is required.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a client for the OpenAI API.
func NewClient(cfg *Config) (*Client, error) {
	return NewCompatibleClient("OpenAI", cfg)
}

// NewCompatibleClient creates a client for an OpenAI-compatible API. name is
// used in error messages only.
func NewCompatibleClient(name string, cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", name)
	}

	sdkConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: openai.NewClientWithConfig(sdkConfig),
		model:  model,
		name:   name,
	}, nil
}

// Generate implements llm.Provider.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages implements llm.Provider. It returns the content of the
// first choice, or llm.ErrNoChoices when the response carries none.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	sampling := llm.ApplyGenerateOptions(opts)

	turns := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         turns,
		Temperature:      float32(sampling.Temperature),
		MaxTokens:        sampling.MaxTokens,
		TopP:             float32(sampling.TopP),
		FrequencyPenalty: float32(sampling.FrequencyPenalty),
		PresencePenalty:  float32(sampling.PresencePenalty),
		Stop:             sampling.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.name, llm.ErrNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model requests are sent with.
func (c *Client) Model() string {
	return c.model
}

// Close is a no-op; the SDK client holds no resources.
func (c *Client) Close() error {
	return nil
}
