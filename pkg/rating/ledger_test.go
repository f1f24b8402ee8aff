package rating_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mindtuner/mindtuner-go/pkg/errs"
	"github.com/mindtuner/mindtuner-go/pkg/meditation"
	"github.com/mindtuner/mindtuner-go/pkg/rating"
	"github.com/mindtuner/mindtuner-go/pkg/storage"
	"github.com/mindtuner/mindtuner-go/pkg/storage/memory"
)

// stepClock advances by one minute on every call.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type mockLinker struct {
	mock.Mock
}

func (m *mockLinker) ApplyRating(ctx context.Context, recordID string, r meditation.Rating) error {
	args := m.Called(ctx, recordID, r)
	return args.Error(0)
}

// flakyStore fails writes to one collection.
type flakyStore struct {
	storage.RecordStore
	failCollection string
}

func (s *flakyStore) Upsert(ctx context.Context, doc *storage.Document) error {
	if doc.Collection == s.failCollection {
		return errors.New("write refused")
	}
	return s.RecordStore.Upsert(ctx, doc)
}

func newLedger(t *testing.T, store storage.RecordStore, linker rating.RecordLinker, opts ...rating.Option) *rating.Ledger {
	t.Helper()
	clock := &stepClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	opts = append([]rating.Option{rating.WithClock(clock.Now)}, opts...)
	l, err := rating.NewLedger(store, linker, opts...)
	require.NoError(t, err)
	return l
}

func TestLedger_CreateScoreRange(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	for score := rating.MinScore; score <= rating.MaxScore; score++ {
		rec, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMeditation, Score: score})
		require.NoError(t, err, "score %d", score)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	}

	for _, score := range []int{-1, 0, 6, 100} {
		_, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMeditation, Score: score})
		assert.ErrorIs(t, err, errs.ErrValidation, "score %d", score)

		var ve *errs.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "score", ve.Field)
	}
}

func TestLedger_CreateValidatesInput(t *testing.T) {
	l := newLedger(t, memory.New(), nil)

	tests := []struct {
		name  string
		req   rating.CreateRequest
		field string
	}{
		{"empty user", rating.CreateRequest{UserID: "  ", Kind: rating.KindMood, Score: 3}, "user_id"},
		{"unknown kind", rating.CreateRequest{UserID: "u1", Kind: "video", Score: 3}, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Create(context.Background(), tt.req)
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLedger_CreateUpdatesLinkedRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := meditation.NewRepository(store)
	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, &meditation.Record{ID: "m1", UserID: "u1", Mood: "tired", CreatedAt: now, UpdatedAt: now}))

	l := newLedger(t, store, repo)
	rec, err := l.Create(ctx, rating.CreateRequest{
		UserID:             "u1",
		Kind:               rating.KindMeditation,
		Score:              5,
		Comment:            "perfect pace",
		MeditationRecordID: "m1",
		Tags:               []string{"slow"},
	})
	require.NoError(t, err)

	linked, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, linked.Score)
	assert.Equal(t, 5, *linked.Score)
	assert.Equal(t, "perfect pace", linked.Feedback)
	assert.Equal(t, []string{"slow"}, linked.FeedbackTags)
	assert.True(t, linked.IsRated)
	assert.True(t, rec.CreatedAt.Equal(*linked.RatedAt))
}

func TestLedger_CreateSwallowsPostActionFailures(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)

	linker := &mockLinker{}
	linker.On("ApplyRating", mock.Anything, "m-missing", mock.AnythingOfType("meditation.Rating")).
		Return(errs.NewNotFoundError("meditation record", "m-missing")).Once()

	store := &flakyStore{RecordStore: memory.New(), failCollection: storage.CollectionUserFeedback}
	l := newLedger(t, store, linker, rating.WithLogger(zap.New(core)))

	rec, err := l.Create(ctx, rating.CreateRequest{
		UserID:             "u1",
		Kind:               rating.KindMeditation,
		Score:              2,
		MeditationRecordID: "m-missing",
		Tags:               []string{"too fast"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	linker.AssertExpectations(t)

	failures := logs.FilterMessage("rating post-action failed").All()
	require.Len(t, failures, 2)
	assert.Equal(t, "link_record", failures[0].ContextMap()["action"])
	assert.Equal(t, "tag_aggregate", failures[1].ContextMap()["action"])

	stored, err := l.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Score)
}

func TestLedger_GetNotFound(t *testing.T) {
	l := newLedger(t, memory.New(), nil)

	_, err := l.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLedger_List(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	kinds := []rating.Kind{rating.KindMeditation, rating.KindMood, rating.KindMeditation, rating.KindGeneral}
	var ids []string
	for i, k := range kinds {
		rec, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: k, Score: i + 1})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := l.Create(ctx, rating.CreateRequest{UserID: "u2", Kind: rating.KindMood, Score: 4})
	require.NoError(t, err)

	all, err := l.List(ctx, "u1", rating.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID)
	assert.Equal(t, ids[0], all[3].ID)

	meditations, err := l.List(ctx, "u1", rating.ListOptions{Kind: rating.KindMeditation, Limit: 1})
	require.NoError(t, err)
	require.Len(t, meditations, 1)
	assert.Equal(t, ids[2], meditations[0].ID)
}

func TestLedger_Update(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	rec, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindGeneral, Score: 2, Comment: "meh", Tags: []string{"long"}})
	require.NoError(t, err)

	updated, err := l.Update(ctx, rec.ID, rating.UpdateRequest{Score: 4, Comment: "better on replay"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, rec.UserID, updated.UserID)
	assert.Equal(t, rec.Kind, updated.Kind)
	assert.True(t, rec.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(rec.UpdatedAt))
	assert.Equal(t, 4, updated.Score)
	assert.Equal(t, "better on replay", updated.Comment)
	assert.Empty(t, updated.Tags)

	_, err = l.Update(ctx, rec.ID, rating.UpdateRequest{Score: 9})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestLedger_UpdateNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	early, err := rating.NewLedger(store, nil, rating.WithClock(func() time.Time {
		return time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	rec, err := early.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMood, Score: 3})
	require.NoError(t, err)

	skewed, err := rating.NewLedger(store, nil, rating.WithClock(func() time.Time {
		return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	updated, err := skewed.Update(ctx, rec.ID, rating.UpdateRequest{Score: 4})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(rec.UpdatedAt))
}

func TestLedger_UpdateNotFound(t *testing.T) {
	l := newLedger(t, memory.New(), nil)

	_, err := l.Update(context.Background(), "missing", rating.UpdateRequest{Score: 3})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "rating", nf.Kind)
}

func TestLedger_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	rec, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMood, Score: 3})
	require.NoError(t, err)

	ok, err := l.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Delete(ctx, "never-existed")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_StatisticsEmpty(t *testing.T) {
	l := newLedger(t, memory.New(), nil)

	stats, err := l.Statistics(context.Background(), rating.StatisticsOptions{UserID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.Average)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, stats.Distribution)
	assert.Empty(t, stats.Recent)
}

func TestLedger_Statistics(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	scores := []int{5, 4, 4, 1, 3, 5, 5, 2, 4, 4, 3, 5}
	for _, s := range scores {
		_, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMeditation, Score: s})
		require.NoError(t, err)
	}
	_, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindMood, Score: 1})
	require.NoError(t, err)

	stats, err := l.Statistics(ctx, rating.StatisticsOptions{UserID: "u1", Kind: rating.KindMeditation})
	require.NoError(t, err)
	assert.Equal(t, len(scores), stats.Total)

	sum, distSum := 0, 0
	for _, s := range scores {
		sum += s
	}
	for k := 1; k <= 5; k++ {
		distSum += stats.Distribution[k]
	}
	assert.Equal(t, stats.Total, distSum)
	assert.InDelta(t, float64(sum)/float64(len(scores)), stats.Average, 1e-9)
	assert.Equal(t, 4, stats.Distribution[5])

	require.Len(t, stats.Recent, rating.DefaultRecentLimit)
	assert.Equal(t, 5, stats.Recent[0].Score)
	for i := 1; i < len(stats.Recent); i++ {
		assert.False(t, stats.Recent[i].CreatedAt.After(stats.Recent[i-1].CreatedAt))
	}

	all, err := l.Statistics(ctx, rating.StatisticsOptions{RecentLimit: 3})
	require.NoError(t, err)
	assert.Equal(t, len(scores)+1, all.Total)
	assert.Len(t, all.Recent, 3)
}

func TestLedger_StatisticsRecentLimitCapped(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	for i := 0; i < rating.MaxListLimit+5; i++ {
		_, err := l.Create(ctx, rating.CreateRequest{UserID: "u1", Kind: rating.KindGeneral, Score: 3})
		require.NoError(t, err)
	}

	stats, err := l.Statistics(ctx, rating.StatisticsOptions{UserID: "u1", RecentLimit: 1000})
	require.NoError(t, err)
	assert.Equal(t, rating.MaxListLimit+5, stats.Total)
	assert.Len(t, stats.Recent, rating.MaxListLimit)
}

func TestLedger_FeedbackPreferences(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	reqs := []rating.CreateRequest{
		{UserID: "u1", Kind: rating.KindMeditation, Score: 5, Tags: []string{"calm voice", "breathing"}},
		{UserID: "u1", Kind: rating.KindMeditation, Score: 4, Tags: []string{"calm voice", "nature"}},
		{UserID: "u1", Kind: rating.KindMeditation, Score: 1, Tags: []string{"too fast", "too long"}},
		{UserID: "u1", Kind: rating.KindMeditation, Score: 2, Tags: []string{"too fast"}},
		{UserID: "u1", Kind: rating.KindMeditation, Score: 3, Tags: []string{"music"}},
		{UserID: "u2", Kind: rating.KindMeditation, Score: 1, Tags: []string{"calm voice"}},
	}
	_, err := l.CreateBatch(ctx, reqs)
	require.NoError(t, err)

	prefs, err := l.FeedbackPreferences(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, prefs.Summary["calm voice"].Count)
	assert.InDelta(t, 4.5, prefs.Summary["calm voice"].AverageScore, 1e-9)

	// calm voice has the highest count; breathing (5.0) outranks nature (4.0).
	assert.Equal(t, []string{"calm voice", "breathing", "nature"}, prefs.Preferred)
	// too fast has the highest count; too long follows.
	assert.Equal(t, []string{"too fast", "too long"}, prefs.Avoided)
	assert.NotContains(t, prefs.Preferred, "music")
	assert.NotContains(t, prefs.Avoided, "music")
	assert.Equal(t, prefs.Preferred, prefs.Emphasize)
}

func TestLedger_FeedbackPreferencesTopFive(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	_, err := l.Create(ctx, rating.CreateRequest{
		UserID: "u1", Kind: rating.KindMeditation, Score: 5,
		Tags: []string{"g", "f", "e", "d", "c", "b", "a"},
	})
	require.NoError(t, err)

	prefs, err := l.FeedbackPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, prefs.Preferred, 7)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, prefs.Emphasize)
	assert.Empty(t, prefs.Avoid)
}

func TestLedger_CreateBatchRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, memory.New(), nil)

	_, err := l.CreateBatch(ctx, []rating.CreateRequest{
		{UserID: "u1", Kind: rating.KindMood, Score: 3},
		{UserID: "u1", Kind: rating.KindMood, Score: 7},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	list, err := l.List(ctx, "u1", rating.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLedger_HealthCheck(t *testing.T) {
	ctx := context.Background()

	healthy := newLedger(t, memory.New(), nil).HealthCheck(ctx)
	assert.Equal(t, "healthy", healthy.Status)
	assert.Empty(t, healthy.Error)

	broken := &flakyStore{RecordStore: memory.New(), failCollection: storage.CollectionHealthCheck}
	unhealthy := newLedger(t, broken, nil).HealthCheck(ctx)
	assert.Equal(t, "unhealthy", unhealthy.Status)
	assert.Contains(t, unhealthy.Error, "write refused")
}

func TestLedger_CreatePersistenceError(t *testing.T) {
	store := &flakyStore{RecordStore: memory.New(), failCollection: storage.CollectionRatings}
	l := newLedger(t, store, nil)

	_, err := l.Create(context.Background(), rating.CreateRequest{UserID: "u1", Kind: rating.KindMood, Score: 3})
	assert.ErrorIs(t, err, errs.ErrPersistence)
}

func TestParseKind(t *testing.T) {
	k, err := rating.ParseKind("mood")
	require.NoError(t, err)
	assert.Equal(t, rating.KindMood, k)

	_, err = rating.ParseKind("other")
	assert.Error(t, err)
}
