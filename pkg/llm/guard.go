package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrEmptyResponse is returned when the provider replied with no text.
	ErrEmptyResponse = errors.New("llm returned an empty response")

	// ErrNoChoices is returned when the provider response has no choices.
	ErrNoChoices = errors.New("llm response contained no choices")

	// ErrTimeout is returned when a call exceeded its per-call timeout.
	ErrTimeout = errors.New("llm call timed out")
)

// Guard wraps a Provider so that every call waits for a rate limiter token
// and runs under its own timeout.
type Guard struct {
	provider Provider
	limiter  *rate.Limiter
	timeout  time.Duration
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	// Timeout bounds each call. Zero selects DefaultTimeout.
	Timeout time.Duration

	// RatePerSecond caps outbound calls. Zero or negative disables limiting.
	RatePerSecond float64

	// Burst is the limiter bucket size. Zero selects 1.
	Burst int
}

// NewGuard wraps provider.
func NewGuard(provider Provider, cfg GuardConfig) *Guard {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Guard{
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  timeout,
	}
}

// Generate implements Provider.
func (g *Guard) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	return g.GenerateWithMessages(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages implements Provider.
func (g *Guard) GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", g.classify(ctx, fmt.Errorf("rate limiter: %w", err))
	}

	text, err := g.provider.GenerateWithMessages(ctx, messages, opts...)
	if err != nil {
		return "", g.classify(ctx, err)
	}
	return text, nil
}

// Close closes the wrapped provider.
func (g *Guard) Close() error {
	return g.provider.Close()
}

func (g *Guard) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, g.timeout, err)
	}
	return err
}
