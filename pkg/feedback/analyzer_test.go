package feedback_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mindtuner/mindtuner-go/pkg/feedback"
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

func isAnalysisCall(messages []llm.Message) bool {
	return strings.Contains(messages[len(messages)-1].Content, "Return the analysis as JSON")
}

func isGuidanceCall(messages []llm.Message) bool {
	return strings.Contains(messages[len(messages)-1].Content, "Based on the user feedback analysis below")
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func current(score int) feedback.UserFeedback {
	return feedback.UserFeedback{
		UserID:       "u1",
		Score:        score,
		Comment:      "too fast",
		MeditationID: "m1",
		Mood:         "anxious",
		Context:      "before an exam",
		CreatedAt:    fixedNow,
	}
}

func TestAnalyzeWithGenerator(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isAnalysisCall)).Return(`{
		"key_issues": ["pace"],
		"improvement_suggestions": ["slower pace"],
		"user_preferences": {"content_style": "breath focus"}
	}`, nil).Once()
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isGuidanceCall)).
		Return("Use longer pauses between cues.", nil).Once()

	a := feedback.NewAnalyzer(p, feedback.WithClock(func() time.Time { return fixedNow }))
	got := a.Analyze(context.Background(), current(5), []feedback.UserFeedback{
		{Score: 1, CreatedAt: fixedNow.Add(-time.Hour)},
	})

	assert.InDelta(t, 0.68, got.OverallSatisfaction, 1e-9)
	assert.Equal(t, []string{"pace"}, got.KeyIssues)
	assert.Equal(t, []string{"slower pace"}, got.ImprovementSuggestions)
	assert.Equal(t, "breath focus", got.UserPreferences[feedback.PrefContentStyle])
	assert.Equal(t, "gentle guidance", got.UserPreferences[feedback.PrefGuidanceTone])
	assert.Equal(t, "Use longer pauses between cues.", got.NextMeditationGuidance)
	assert.False(t, got.Fallback)
	p.AssertExpectations(t)
}

func TestAnalyzeUnreachableGenerator(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	core, logs := observer.New(zap.WarnLevel)
	a := feedback.NewAnalyzer(p,
		feedback.WithLogger(zap.New(core)),
		feedback.WithClock(func() time.Time { return fixedNow }),
	)

	got := a.Analyze(context.Background(), current(2), nil)

	assert.InDelta(t, 0.4, got.OverallSatisfaction, 1e-9)
	assert.Equal(t, []string{"insufficient personalization", "guidance style may not fit"}, got.KeyIssues)
	assert.Equal(t, []string{"increase personalization", "adjust tone"}, got.ImprovementSuggestions)
	assert.Equal(t, feedback.FallbackGuidance, got.NextMeditationGuidance)
	assert.Len(t, got.UserPreferences, 4)
	assert.True(t, got.Fallback)
	assert.Equal(t, 2, logs.Len())
}

func TestAnalyzeUnparsableReplyKeepsGuidance(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isAnalysisCall)).Return("I cannot do JSON today.", nil).Once()
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isGuidanceCall)).Return("Keep the gentle tone.", nil).Once()

	a := feedback.NewAnalyzer(p)
	got := a.Analyze(context.Background(), current(3), nil)

	require.True(t, got.Fallback)
	assert.Equal(t, []string{"content quality needs improvement"}, got.KeyIssues)
	assert.Equal(t, "Keep the gentle tone.", got.NextMeditationGuidance)
	p.AssertExpectations(t)
}

func TestAnalyzeGuidanceFailureKeepsAnalysis(t *testing.T) {
	p := &mockProvider{}
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isAnalysisCall)).
		Return(`{"key_issues": [], "improvement_suggestions": ["keep it"], "user_preferences": {}}`, nil).Once()
	p.On("GenerateWithMessages", mock.Anything, mock.MatchedBy(isGuidanceCall)).
		Return("", llm.ErrTimeout).Once()

	a := feedback.NewAnalyzer(p)
	got := a.Analyze(context.Background(), current(4), nil)

	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"keep it"}, got.ImprovementSuggestions)
	assert.Equal(t, feedback.FallbackGuidance, got.NextMeditationGuidance)
}
