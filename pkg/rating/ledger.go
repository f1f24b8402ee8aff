package rating

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/errs"
	"github.com/mindtuner/mindtuner-go/pkg/meditation"
	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// List and statistics limits.
const (
	DefaultListLimit   = 50
	MaxListLimit       = 100
	DefaultRecentLimit = 10
	preferenceTopN     = 5
)

// RecordLinker receives the rating copied onto a linked meditation record.
// *meditation.Repository satisfies it.
type RecordLinker interface {
	ApplyRating(ctx context.Context, recordID string, rating meditation.Rating) error
}

// Ledger owns the rating lifecycle.
//
// It is safe for concurrent use; all state lives in the record store.
type Ledger struct {
	store  storage.RecordStore
	linker RecordLinker
	node   *snowflake.Node
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithNode sets the snowflake node used for ids.
func WithNode(node *snowflake.Node) Option {
	return func(l *Ledger) {
		if node != nil {
			l.node = node
		}
	}
}

// NewLedger creates a Ledger on top of store. linker may be nil, in which
// case linked-record updates are skipped.
//
// Example:
//
//	repo := meditation.NewRepository(store)
//	ledger, err := rating.NewLedger(store, repo, rating.WithLogger(logger))
func NewLedger(store storage.RecordStore, linker RecordLinker, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		linker: linker,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.node == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			return nil, errs.Wrap("NewLedger", err)
		}
		l.node = node
	}
	return l, nil
}

func validateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return errs.NewValidationError("score", "must be between 1 and 5")
	}
	return nil
}

func validateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return errs.NewValidationError("user_id", "must not be empty")
	}
	if !req.Kind.Valid() {
		return errs.NewValidationError("kind", "must be one of meditation, mood, general")
	}
	return validateScore(req.Score)
}

// Create stores a new rating.
//
// When the request links a meditation record, the rating is copied onto
// that record; when it carries tags, a tag aggregate is stored for
// preference mining. Both follow-ups are best effort: their failures are
// logged and never fail the creation.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*Record, error) {
	if err := validateCreate(req); err != nil {
		return nil, errs.Wrap("Ledger.Create", err)
	}
	return l.create(ctx, req)
}

func (l *Ledger) create(ctx context.Context, req CreateRequest) (*Record, error) {
	now := l.now().UTC()
	rec := &Record{
		ID:                 l.node.Generate().String(),
		UserID:             req.UserID,
		Kind:               req.Kind,
		Score:              req.Score,
		Comment:            req.Comment,
		Tags:               req.Tags,
		MeditationRecordID: req.MeditationRecordID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	doc, err := toDocument(rec)
	if err != nil {
		return nil, errs.Wrap("Ledger.Create", errs.NewPersistenceError("encode", err))
	}
	if err := l.store.Upsert(ctx, doc); err != nil {
		return nil, errs.Wrap("Ledger.Create", errs.NewPersistenceError("Upsert", err))
	}
	RatingsCreated.WithLabelValues(string(rec.Kind)).Inc()

	l.runPostActions(ctx, rec, l.postActionsFor(rec))
	return rec, nil
}

// CreateBatch validates every request and then stores them in order. A
// validation failure rejects the whole batch before anything is written;
// a store failure stops the batch and returns the ratings created so far.
func (l *Ledger) CreateBatch(ctx context.Context, reqs []CreateRequest) ([]*Record, error) {
	for _, req := range reqs {
		if err := validateCreate(req); err != nil {
			return nil, errs.Wrap("Ledger.CreateBatch", err)
		}
	}

	out := make([]*Record, 0, len(reqs))
	for _, req := range reqs {
		rec, err := l.create(ctx, req)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns the rating with id, or a *errs.NotFoundError.
func (l *Ledger) Get(ctx context.Context, id string) (*Record, error) {
	doc, err := l.store.Get(ctx, storage.CollectionRatings, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errs.Wrap("Ledger.Get", errs.NewNotFoundError("rating", id))
	}
	if err != nil {
		return nil, errs.Wrap("Ledger.Get", errs.NewPersistenceError("Get", err))
	}
	rec, err := fromDocument(doc)
	if err != nil {
		return nil, errs.Wrap("Ledger.Get", errs.NewPersistenceError("decode", err))
	}
	return rec, nil
}

// List returns the user's ratings, newest first.
func (l *Ledger) List(ctx context.Context, userID string, opts ListOptions) ([]*Record, error) {
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	docs, err := l.store.Query(ctx, &storage.QueryOptions{
		Collection: storage.CollectionRatings,
		UserID:     userID,
		Kind:       string(opts.Kind),
		Limit:      limit,
	})
	if err != nil {
		return nil, errs.Wrap("Ledger.List", errs.NewPersistenceError("Query", err))
	}
	return l.decodeAll(docs), nil
}

// Update replaces the score, comment and tags of an existing rating.
// UpdatedAt is refreshed and never moves backwards.
func (l *Ledger) Update(ctx context.Context, id string, req UpdateRequest) (*Record, error) {
	if err := validateScore(req.Score); err != nil {
		return nil, errs.Wrap("Ledger.Update", err)
	}

	rec, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	if now.Before(rec.UpdatedAt) {
		now = rec.UpdatedAt
	}
	rec.Score = req.Score
	rec.Comment = req.Comment
	rec.Tags = req.Tags
	rec.UpdatedAt = now

	doc, err := toDocument(rec)
	if err != nil {
		return nil, errs.Wrap("Ledger.Update", errs.NewPersistenceError("encode", err))
	}
	if err := l.store.Upsert(ctx, doc); err != nil {
		return nil, errs.Wrap("Ledger.Update", errs.NewPersistenceError("Upsert", err))
	}
	return rec, nil
}

// Delete removes a rating. Deleting a missing rating succeeds.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	if err := l.store.Delete(ctx, storage.CollectionRatings, id); err != nil {
		return false, errs.Wrap("Ledger.Delete", errs.NewPersistenceError("Delete", err))
	}
	return true, nil
}

// Statistics aggregates every rating matching opts. An empty result yields
// zero totals with all five distribution keys present.
func (l *Ledger) Statistics(ctx context.Context, opts StatisticsOptions) (*Statistics, error) {
	recentLimit := opts.RecentLimit
	switch {
	case recentLimit <= 0:
		recentLimit = DefaultRecentLimit
	case recentLimit > MaxListLimit:
		recentLimit = MaxListLimit
	}

	docs, err := l.store.Query(ctx, &storage.QueryOptions{
		Collection: storage.CollectionRatings,
		UserID:     opts.UserID,
		Kind:       string(opts.Kind),
	})
	if err != nil {
		return nil, errs.Wrap("Ledger.Statistics", errs.NewPersistenceError("Query", err))
	}

	stats := &Statistics{
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Recent:       []*Record{},
	}

	sum := 0
	for _, rec := range l.decodeAll(docs) {
		if rec.Score < MinScore || rec.Score > MaxScore {
			l.logger.Warn("skipping rating with out-of-range score",
				zap.String("rating_id", rec.ID), zap.Int("score", rec.Score))
			continue
		}
		stats.Total++
		sum += rec.Score
		stats.Distribution[rec.Score]++
		if len(stats.Recent) < recentLimit {
			stats.Recent = append(stats.Recent, rec)
		}
	}
	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

// FeedbackPreferences mines the user's tag aggregates for preferred and
// avoided tags.
func (l *Ledger) FeedbackPreferences(ctx context.Context, userID string) (*Preferences, error) {
	docs, err := l.store.Query(ctx, &storage.QueryOptions{
		Collection: storage.CollectionUserFeedback,
		UserID:     userID,
	})
	if err != nil {
		return nil, errs.Wrap("Ledger.FeedbackPreferences", errs.NewPersistenceError("Query", err))
	}

	summary := map[string]TagStat{}
	for _, doc := range docs {
		agg, err := aggregateFromDocument(doc)
		if err != nil {
			l.logger.Warn("skipping undecodable tag aggregate", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		for _, tag := range agg.Tags {
			st := summary[tag]
			st.Tag = tag
			st.Count++
			st.TotalScore += agg.Score
			st.AverageScore = float64(st.TotalScore) / float64(st.Count)
			summary[tag] = st
		}
	}

	var preferred, avoided []TagStat
	for _, st := range summary {
		switch {
		case st.AverageScore >= 4:
			preferred = append(preferred, st)
		case st.AverageScore <= 2:
			avoided = append(avoided, st)
		}
	}
	rankTags(preferred, true)
	rankTags(avoided, false)

	prefs := &Preferences{
		UserID:    userID,
		Summary:   summary,
		Preferred: tagNames(preferred),
		Avoided:   tagNames(avoided),
	}
	prefs.Emphasize = topN(prefs.Preferred, preferenceTopN)
	prefs.Avoid = topN(prefs.Avoided, preferenceTopN)
	return prefs, nil
}

// HealthCheck writes and deletes a probe document.
func (l *Ledger) HealthCheck(ctx context.Context) *HealthStatus {
	now := l.now().UTC()
	status := &HealthStatus{Status: "healthy", Service: "rating_ledger", CheckedAt: now}

	probe := &storage.Document{
		Collection: storage.CollectionHealthCheck,
		ID:         "probe-" + l.node.Generate().String(),
		Body:       []byte(`{}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := l.store.Upsert(ctx, probe)
	if err == nil {
		err = l.store.Delete(ctx, probe.Collection, probe.ID)
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		l.logger.Warn("rating ledger health check failed", zap.Error(err))
	}
	return status
}

// decodeAll decodes docs, logging and skipping undecodable ones.
func (l *Ledger) decodeAll(docs []*storage.Document) []*Record {
	out := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument(doc)
		if err != nil {
			l.logger.Warn("skipping undecodable rating", zap.String("rating_id", doc.ID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func rankTags(stats []TagStat, higherFirst bool) {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.AverageScore != b.AverageScore {
			if higherFirst {
				return a.AverageScore > b.AverageScore
			}
			return a.AverageScore < b.AverageScore
		}
		return a.Tag < b.Tag
	})
}

func tagNames(stats []TagStat) []string {
	out := make([]string, 0, len(stats))
	for _, st := range stats {
		out = append(out, st.Tag)
	}
	return out
}

func topN(tags []string, n int) []string {
	if len(tags) > n {
		tags = tags[:n]
	}
	return append([]string{}, tags...)
}
