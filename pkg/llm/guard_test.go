package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindtuner/mindtuner-go/pkg/llm"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Close() error { return nil }

// slowProvider blocks until its context is done.
type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (s slowProvider) GenerateWithMessages(ctx context.Context, _ []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return s.Generate(ctx, "", opts...)
}

func (slowProvider) Close() error { return nil }

func TestApplyGenerateOptions(t *testing.T) {
	defaults := llm.ApplyGenerateOptions(nil)
	assert.Equal(t, 0.7, defaults.Temperature)
	assert.Equal(t, 1000, defaults.MaxTokens)
	assert.Equal(t, 1.0, defaults.TopP)
	assert.Zero(t, defaults.FrequencyPenalty)

	opts := llm.ApplyGenerateOptions([]llm.GenerateOption{
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(800),
		llm.WithTopP(0.9),
		llm.WithFrequencyPenalty(0.2),
		llm.WithPresencePenalty(0.1),
		llm.WithStop("END"),
	})
	assert.Equal(t, 0.3, opts.Temperature)
	assert.Equal(t, 800, opts.MaxTokens)
	assert.Equal(t, 0.9, opts.TopP)
	assert.Equal(t, 0.2, opts.FrequencyPenalty)
	assert.Equal(t, 0.1, opts.PresencePenalty)
	assert.Equal(t, []string{"END"}, opts.Stop)
}

func TestComplete(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "hi"},
	}).Return("  hello  ", nil).Once()

	text, err := llm.Complete(context.Background(), p, "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	p.AssertExpectations(t)
}

func TestCompleteEmpty(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.Anything).Return(" \n", nil)

	_, err := llm.Complete(context.Background(), p, "", "hi")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGuard_PassesThrough(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.Anything).Return("ok", nil)

	g := llm.NewGuard(p, llm.GuardConfig{RatePerSecond: 100, Burst: 5})
	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGuard_PropagatesErrors(t *testing.T) {
	p := &mockProvider{}
	boom := errors.New("status 503")
	p.On("GenerateWithMessages", mock.Anything, mock.Anything).Return("", boom)

	g := llm.NewGuard(p, llm.GuardConfig{})
	_, err := g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, llm.ErrTimeout)
}

func TestGuard_Timeout(t *testing.T) {
	g := llm.NewGuard(slowProvider{}, llm.GuardConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, llm.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}
