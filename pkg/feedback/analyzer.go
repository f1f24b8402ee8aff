package feedback

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/llm"
)

// FallbackGuidance is used when the guidance call fails.
const FallbackGuidance = "optimize content based on feedback, increase personalization and practicality"

// Sampling parameters for both analysis calls.
const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 1000
	analysisTopP        = 0.9
)

// Fallbacks counts analyses that fell back to local defaults.
// Labels: stage (content, guidance), reason (call_failed, parse_failed)
var Fallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mindtuner",
		Subsystem: "feedback",
		Name:      "analysis_fallbacks_total",
		Help:      "Total number of feedback analysis steps answered by the local fallback",
	},
	[]string{"stage", "reason"},
)

// Analyzer turns feedback into an Analysis.
//
// The content analysis and the guidance are two independent generator calls;
// either may fail without affecting the other, and neither failure is ever
// returned to the caller.
type Analyzer struct {
	llm    llm.Provider
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides time.Now for the 30-day satisfaction window.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an Analyzer backed by provider.
//
// Parameters:
//   - provider: text generator used for content analysis and guidance
//   - opts: optional logger and clock
//
// Returns a new Analyzer.
func NewAnalyzer(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:    provider,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze analyzes current against prior feedback (newest first).
func (a *Analyzer) Analyze(ctx context.Context, current UserFeedback, prior []UserFeedback) *Analysis {
	satisfaction := Satisfaction(current, prior, a.now())

	content, fellBack := a.analyzeContent(ctx, current, prior)
	guidance := a.generateGuidance(ctx, current, satisfaction, content)

	return &Analysis{
		OverallSatisfaction:    satisfaction,
		KeyIssues:              content.KeyIssues,
		ImprovementSuggestions: content.ImprovementSuggestions,
		UserPreferences:        content.UserPreferences,
		NextMeditationGuidance: guidance,
		Fallback:               fellBack,
	}
}

func (a *Analyzer) options() []llm.GenerateOption {
	return []llm.GenerateOption{
		llm.WithTemperature(analysisTemperature),
		llm.WithMaxTokens(analysisMaxTokens),
		llm.WithTopP(analysisTopP),
	}
}

func (a *Analyzer) analyzeContent(ctx context.Context, current UserFeedback, prior []UserFeedback) (*contentAnalysis, bool) {
	raw, err := llm.Complete(ctx, a.llm, analysisSystemPrompt, buildAnalysisPrompt(current, prior), a.options()...)
	if err != nil {
		Fallbacks.WithLabelValues("content", "call_failed").Inc()
		a.logger.Warn("feedback analysis call failed, using heuristic",
			zap.String("user_id", current.UserID), zap.Error(err))
		return heuristicAnalysis(current.Score), true
	}

	parsed, err := parseAnalysis(raw)
	if err != nil {
		Fallbacks.WithLabelValues("content", "parse_failed").Inc()
		a.logger.Warn("feedback analysis reply unparsable, using heuristic",
			zap.String("user_id", current.UserID), zap.Error(err))
		return heuristicAnalysis(current.Score), true
	}
	return parsed, false
}

func (a *Analyzer) generateGuidance(ctx context.Context, current UserFeedback, satisfaction float64, content *contentAnalysis) string {
	text, err := llm.Complete(ctx, a.llm, analysisSystemPrompt, buildGuidancePrompt(current, satisfaction, content), a.options()...)
	if err != nil {
		Fallbacks.WithLabelValues("guidance", "call_failed").Inc()
		a.logger.Warn("guidance call failed, using fixed guidance",
			zap.String("user_id", current.UserID), zap.Error(err))
		return FallbackGuidance
	}
	return text
}
