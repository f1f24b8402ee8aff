package meditation

import (
	"context"
	"errors"
	"sort"

	"github.com/mindtuner/mindtuner-go/pkg/errs"
	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// DefaultHistoryLimit is used when a history call passes a non-positive limit.
const DefaultHistoryLimit = 50

// Repository persists meditation records in a storage.RecordStore.
type Repository struct {
	store storage.RecordStore
}

// NewRepository creates a repository on top of store.
func NewRepository(store storage.RecordStore) *Repository {
	return &Repository{store: store}
}

// Save inserts or replaces the record.
func (r *Repository) Save(ctx context.Context, rec *Record) error {
	doc, err := toDocument(rec)
	if err != nil {
		return errs.NewPersistenceError("Meditation.Save", err)
	}
	return errs.NewPersistenceError("Meditation.Save", r.store.Upsert(ctx, doc))
}

// Get returns the record with id, or a *errs.NotFoundError.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	doc, err := r.store.Get(ctx, storage.CollectionMeditations, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errs.NewNotFoundError("meditation record", id)
	}
	if err != nil {
		return nil, errs.NewPersistenceError("Meditation.Get", err)
	}
	rec, err := fromDocument(doc)
	if err != nil {
		return nil, errs.NewPersistenceError("Meditation.Get", err)
	}
	return rec, nil
}

// ApplyRating copies a rating onto the record with id.
func (r *Repository) ApplyRating(ctx context.Context, id string, rating Rating) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	score := rating.Score
	ratedAt := rating.RatedAt
	rec.Score = &score
	rec.Feedback = rating.Comment
	rec.FeedbackTags = rating.Tags
	rec.IsRated = true
	rec.RatedAt = &ratedAt
	if ratedAt.After(rec.UpdatedAt) {
		rec.UpdatedAt = ratedAt
	}

	return r.Save(ctx, rec)
}

// List returns up to limit records for userID, newest first.
func (r *Repository) List(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	docs, err := r.store.Query(ctx, &storage.QueryOptions{
		Collection: storage.CollectionMeditations,
		UserID:     userID,
		Limit:      limit,
	})
	if err != nil {
		return nil, errs.NewPersistenceError("Meditation.List", err)
	}

	records := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument(doc)
		if err != nil {
			return nil, errs.NewPersistenceError("Meditation.List", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DayGroup is the set of records created on one calendar day.
type DayGroup struct {
	// Date is formatted YYYY-MM-DD in UTC.
	Date    string    `json:"date"`
	Records []*Record `json:"records"`
}

// HistoryByDate returns the user's latest records grouped by creation day,
// newest day first. Records keep their newest-first order within a day.
func (r *Repository) HistoryByDate(ctx context.Context, userID string, limit int) ([]DayGroup, error) {
	records, err := r.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var groups []DayGroup
	for _, rec := range records {
		day := rec.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return errs.NewPersistenceError("Meditation.Delete", r.store.Delete(ctx, storage.CollectionMeditations, id))
}
