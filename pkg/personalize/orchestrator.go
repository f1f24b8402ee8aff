package personalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/errs"
	"github.com/mindtuner/mindtuner-go/pkg/feedback"
	"github.com/mindtuner/mindtuner-go/pkg/llm"
	"github.com/mindtuner/mindtuner-go/pkg/meditation"
	"github.com/mindtuner/mindtuner-go/pkg/rating"
	"github.com/mindtuner/mindtuner-go/pkg/speech"
)

const tracerID = "mindtuner-personalize"

// Generation modes, used as metric labels.
const (
	modeEnhanced   = "enhanced"
	modePlain      = "plain"
	modeRegenerate = "regenerate"
)

// RatingSource lists a user's ratings newest first. *rating.Ledger satisfies it.
type RatingSource interface {
	List(ctx context.Context, userID string, opts rating.ListOptions) ([]*rating.Record, error)
}

// RecordStore loads and saves meditation records. *meditation.Repository
// satisfies it.
type RecordStore interface {
	Get(ctx context.Context, id string) (*meditation.Record, error)
	Save(ctx context.Context, rec *meditation.Record) error
}

// Analyzer analyzes one feedback against its history. *feedback.Analyzer
// satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, current feedback.UserFeedback, prior []feedback.UserFeedback) *feedback.Analysis
}

// Orchestrator runs the personalization pipeline.
//
// It keeps no per-request state and is safe for concurrent use.
type Orchestrator struct {
	ratings     RatingSource
	records     RecordStore
	analyzer    Analyzer
	llm         llm.Provider
	synthesizer speech.Synthesizer
	node        *snowflake.Node
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSynthesizer enables speech synthesis. Without it records carry no audio.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(o *Orchestrator) { o.synthesizer = s }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNode sets the snowflake node used for record ids.
func WithNode(node *snowflake.Node) Option {
	return func(o *Orchestrator) {
		if node != nil {
			o.node = node
		}
	}
}

// NewOrchestrator wires the pipeline.
//
// Parameters:
//   - ratings: source of the user's ratings
//   - records: meditation record persistence
//   - analyzer: feedback analyzer
//   - provider: text generator for scripts
//   - opts: synthesizer, logger, clock and id node
//
// Returns the orchestrator, or an error if no id node could be created.
func NewOrchestrator(ratings RatingSource, records RecordStore, analyzer Analyzer, provider llm.Provider, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		ratings:  ratings,
		records:  records,
		analyzer: analyzer,
		llm:      provider,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.node == nil {
		node, err := snowflake.NewNode(2)
		if err != nil {
			return nil, errs.Wrap("NewOrchestrator", err)
		}
		o.node = node
	}
	return o, nil
}

func validateRequest(req Request) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return errs.NewValidationError("user_id", "must not be empty")
	case strings.TrimSpace(req.Mood) == "":
		return errs.NewValidationError("mood", "must not be empty")
	case strings.TrimSpace(req.Description) == "":
		return errs.NewValidationError("description", "must not be empty")
	}
	return nil
}

// GenerateEnhanced generates a script shaped by the user's feedback history,
// voices it when a synthesizer is configured, and persists the record.
//
// Synthesis failures never fail the call; the result then has no AudioURL.
func (o *Orchestrator) GenerateEnhanced(ctx context.Context, req Request) (res *Result, err error) {
	const op = "Orchestrator.GenerateEnhanced"
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Orchestrator/GenerateEnhanced")
	defer span.End()
	defer o.observe(modeEnhanced, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, errs.Wrap(op, err)
	}
	span.SetAttributes(attribute.String("user_id", req.UserID))

	history, err := o.loadFeedback(ctx, req.UserID, feedbackLookback)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}

	var analysis *feedback.Analysis
	if len(history) > 0 {
		window := history
		if len(window) > analysisWindow {
			window = window[:analysisWindow]
		}
		analysis = o.analyzer.Analyze(ctx, window[0], window[1:])
	}
	span.SetAttributes(attribute.Int("feedback_count", len(history)))

	raw, err := llm.Complete(ctx, o.llm, enhancedSystemPrompt, buildEnhancedPrompt(req, analysis, history),
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(800),
		llm.WithTopP(0.9),
		llm.WithFrequencyPenalty(0.2),
		llm.WithPresencePenalty(0.1),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errs.Wrap(op, generationFailure(err))
	}

	rec := &meditation.Record{
		UserID:            req.UserID,
		Mood:              req.Mood,
		Context:           req.Description,
		FeedbackOptimized: true,
	}
	return o.finish(ctx, op, raw, rec, len(history))
}

// Generate generates a script from mood and description alone.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	const op = "Orchestrator.Generate"
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Orchestrator/Generate")
	defer span.End()
	defer o.observe(modePlain, time.Now(), &err)

	if err := validateRequest(req); err != nil {
		return nil, errs.Wrap(op, err)
	}

	raw, err := o.plainScript(ctx, req, "")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errs.Wrap(op, err)
	}

	rec := &meditation.Record{
		UserID:  req.UserID,
		Mood:    req.Mood,
		Context: req.Description,
	}
	return o.finish(ctx, op, raw, rec, 0)
}

// Regenerate produces a fresh script for the request and links it to the
// record it replaces. The previous record is left unchanged.
func (o *Orchestrator) Regenerate(ctx context.Context, previousRecordID string, req Request) (res *Result, err error) {
	const op = "Orchestrator.Regenerate"
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Orchestrator/Regenerate")
	defer span.End()
	defer o.observe(modeRegenerate, time.Now(), &err)

	if strings.TrimSpace(previousRecordID) == "" {
		return nil, errs.Wrap(op, errs.NewValidationError("previous_record_id", "must not be empty"))
	}
	if err := validateRequest(req); err != nil {
		return nil, errs.Wrap(op, err)
	}

	previous, err := o.records.Get(ctx, previousRecordID)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}

	raw, err := o.plainScript(ctx, req, previous.Script)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errs.Wrap(op, err)
	}

	rec := &meditation.Record{
		UserID:           req.UserID,
		Mood:             req.Mood,
		Context:          req.Description,
		IsRegenerated:    true,
		PreviousRecordID: previous.ID,
		PreviousScript:   previous.Script,
	}
	return o.finish(ctx, op, raw, rec, 0)
}

// AnalyzeUser analyzes the user's latest feedback against the entries
// before it. A user without feedback gets HasFeedback false and no analysis.
func (o *Orchestrator) AnalyzeUser(ctx context.Context, userID string) (*UserAnalysis, error) {
	const op = "Orchestrator.AnalyzeUser"
	if strings.TrimSpace(userID) == "" {
		return nil, errs.Wrap(op, errs.NewValidationError("user_id", "must not be empty"))
	}

	history, err := o.loadFeedback(ctx, userID, DefaultHistoryLimit)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	if len(history) == 0 {
		return &UserAnalysis{}, nil
	}

	latest := history[0]
	return &UserAnalysis{
		HasFeedback:    true,
		FeedbackCount:  len(history),
		LatestFeedback: &latest,
		Analysis:       o.analyzer.Analyze(ctx, latest, history[1:]),
	}, nil
}

// FeedbackHistory returns the user's feedback, newest first. limit defaults
// to 10 and is capped at 50.
func (o *Orchestrator) FeedbackHistory(ctx context.Context, userID string, limit int) ([]feedback.UserFeedback, error) {
	const op = "Orchestrator.FeedbackHistory"
	if strings.TrimSpace(userID) == "" {
		return nil, errs.Wrap(op, errs.NewValidationError("user_id", "must not be empty"))
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	history, err := o.loadFeedback(ctx, userID, limit)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	return history, nil
}

// loadFeedback joins the user's newest ratings with their linked records.
// Ratings without a resolvable record are skipped.
func (o *Orchestrator) loadFeedback(ctx context.Context, userID string, limit int) ([]feedback.UserFeedback, error) {
	ratings, err := o.ratings.List(ctx, userID, rating.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	out := make([]feedback.UserFeedback, 0, len(ratings))
	for _, r := range ratings {
		if r.MeditationRecordID == "" {
			continue
		}
		rec, err := o.records.Get(ctx, r.MeditationRecordID)
		if err != nil {
			o.logger.Debug("skipping rating with unresolved record",
				zap.String("rating_id", r.ID),
				zap.String("record_id", r.MeditationRecordID),
				zap.Error(err))
			continue
		}
		out = append(out, feedback.UserFeedback{
			UserID:       r.UserID,
			Score:        r.Score,
			Comment:      r.Comment,
			MeditationID: rec.ID,
			Mood:         rec.Mood,
			Context:      rec.Context,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

func (o *Orchestrator) plainScript(ctx context.Context, req Request, previousScript string) (string, error) {
	raw, err := llm.Complete(ctx, o.llm, plainSystemPrompt, buildPlainPrompt(req, previousScript),
		llm.WithTemperature(0.9),
		llm.WithMaxTokens(500),
	)
	if err != nil {
		return "", generationFailure(err)
	}
	return raw, nil
}

// finish post-processes the script, attempts synthesis and persists rec.
func (o *Orchestrator) finish(ctx context.Context, op, raw string, rec *meditation.Record, feedbackCount int) (*Result, error) {
	script := postProcess(raw)
	if script == "" {
		return nil, errs.Wrap(op, errs.NewGenerationFailedError("malformed response", "no script text after removing headers"))
	}

	audioURL := o.synthesize(ctx, script, rec.UserID)

	now := o.now().UTC()
	rec.ID = o.node.Generate().String()
	rec.Script = script
	rec.AudioURL = audioURL
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := o.records.Save(ctx, rec); err != nil {
		return nil, errs.Wrap(op, err)
	}

	o.logger.Info("meditation generated",
		zap.String("record_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.Bool("feedback_optimized", rec.FeedbackOptimized),
		zap.Bool("has_audio", rec.HasAudio()))

	return &Result{
		Status:   StatusSuccess,
		RecordID: rec.ID,
		Script:   script,
		AudioURL: audioURL,
		Metadata: Metadata{
			Mood:              rec.Mood,
			Description:       rec.Context,
			EstimatedDuration: meditation.EstimatedDuration,
			GeneratedAt:       now,
			FeedbackOptimized: rec.FeedbackOptimized,
			FeedbackCount:     feedbackCount,
		},
	}, nil
}

// synthesize returns the audio URL, or "" when synthesis is disabled or
// degraded.
func (o *Orchestrator) synthesize(ctx context.Context, script, userID string) string {
	if o.synthesizer == nil {
		return ""
	}

	ctx, span := otel.Tracer(tracerID).Start(ctx, "Orchestrator/Synthesize")
	defer span.End()

	synthesisID := uuid.NewString()
	audioURL, err := o.synthesizer.Synthesize(ctx, script, synthesisID)
	if err == nil {
		err = speech.ValidateURL(audioURL)
		if err != nil {
			o.degrade(span, "invalid_url", synthesisID, userID, err)
			return ""
		}
		return audioURL
	}
	o.degrade(span, "synthesis_failed", synthesisID, userID, err)
	return ""
}

func (o *Orchestrator) degrade(span trace.Span, reason, synthesisID, userID string, err error) {
	SynthesisDegraded.WithLabelValues(reason).Inc()
	span.SetStatus(codes.Error, reason)
	o.logger.Warn("speech synthesis degraded, continuing without audio",
		zap.String("reason", reason),
		zap.String("synthesis_id", synthesisID),
		zap.String("user_id", userID),
		zap.Error(fmt.Errorf("%w: %w", errs.ErrSynthesisDegraded, err)))
}

// generationFailure maps a generator error onto a GenerationFailedError.
func generationFailure(err error) error {
	reason := "generator unavailable"
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrNoChoices):
		reason = "empty response"
	}
	return errs.NewGenerationFailedError(reason, err.Error())
}

func (o *Orchestrator) observe(mode string, start time.Time, errp *error) {
	GenerationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	Generations.WithLabelValues(mode, outcome(*errp)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errs.ErrValidation):
		return "validation"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, errs.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}
