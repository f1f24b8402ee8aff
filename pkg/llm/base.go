// Package llm defines the text generator used to write meditation scripts
// and to analyze user feedback.
//
// Backends live in sub-packages (openai, deepseek, ollama). Callers normally
// reach them through a Guard, which adds a per-call timeout and an outbound
// rate limit, and through Complete, which sends one system and one user turn.
package llm

import (
	"context"
	"strings"
)

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider is a chat-completion text generator.
type Provider interface {
	// Generate sends prompt as a single user turn.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages sends the whole conversation and returns the text
	// of the first choice. An empty string is a valid reply at this level;
	// Complete turns it into ErrEmptyResponse.
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close releases the backend.
	Close() error
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions holds the sampling parameters of one call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	TopP        float64

	// FrequencyPenalty and PresencePenalty range from -2.0 to 2.0.
	FrequencyPenalty float64
	PresencePenalty  float64

	Stop []string
}

// GenerateOption sets one sampling parameter.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
//
// Example:
//
//	script, err := llm.Complete(ctx, p, system, prompt, llm.WithTemperature(0.7))
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) { o.Temperature = temp }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

// WithTopP sets nucleus sampling.
func WithTopP(topP float64) GenerateOption {
	return func(o *GenerateOptions) { o.TopP = topP }
}

// WithFrequencyPenalty sets the frequency penalty.
func WithFrequencyPenalty(p float64) GenerateOption {
	return func(o *GenerateOptions) { o.FrequencyPenalty = p }
}

// WithPresencePenalty sets the presence penalty.
func WithPresencePenalty(p float64) GenerateOption {
	return func(o *GenerateOptions) { o.PresencePenalty = p }
}

// WithStop sets stop sequences.
func WithStop(stop ...string) GenerateOption {
	return func(o *GenerateOptions) { o.Stop = stop }
}

// ApplyGenerateOptions resolves opts on top of the defaults used by every
// backend: temperature 0.7, 1000 tokens, top-p 1.0 and no penalties.
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	resolved := &GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   1000,
		TopP:        1.0,
	}
	for _, opt := range opts {
		opt(resolved)
	}
	return resolved
}

// Complete sends a system and a user message and returns the trimmed reply.
// An empty reply is reported as ErrEmptyResponse.
func Complete(ctx context.Context, p Provider, system, user string, opts ...GenerateOption) (string, error) {
	messages := make([]Message, 0, 2)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, Message{Role: RoleUser, Content: user})

	text, err := p.GenerateWithMessages(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
