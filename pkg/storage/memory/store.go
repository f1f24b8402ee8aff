// Package memory provides an in-process RecordStore, used for tests, the CLI
// dry-run mode and single-node deployments that do not need durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

const tracerID = "record-store-memory"

// Store defines an in-memory record store.
type Store struct {
	sync.RWMutex
	data map[string]map[string]*storage.Document
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{data: map[string]map[string]*storage.Document{}}
}

// Upsert stores a copy of doc.
func (s *Store) Upsert(ctx context.Context, doc *storage.Document) error {
	if err := storage.ValidateDocument(doc); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Upsert")
	defer span.End()

	coll, ok := s.data[doc.Collection]
	if !ok {
		coll = map[string]*storage.Document{}
		s.data[doc.Collection] = coll
	}
	coll[doc.ID] = doc.Clone()
	return nil
}

// Get retrieves a document by collection and id.
func (s *Store) Get(ctx context.Context, collection, id string) (*storage.Document, error) {
	s.RLock()
	defer s.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Get")
	defer span.End()

	doc, ok := s.data[collection][id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc.Clone(), nil
}

// Delete removes a document; missing documents are ignored.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.Lock()
	defer s.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Delete")
	defer span.End()

	delete(s.data[collection], id)
	return nil
}

// Query returns matching documents, newest first.
func (s *Store) Query(ctx context.Context, opts *storage.QueryOptions) ([]*storage.Document, error) {
	if opts == nil || opts.Collection == "" {
		return nil, storage.ErrMissingCollection
	}

	s.RLock()
	defer s.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Query")
	defer span.End()

	var out []*storage.Document
	for _, doc := range s.data[opts.Collection] {
		if opts.UserID != "" && doc.UserID != opts.UserID {
			continue
		}
		if opts.Kind != "" && doc.Kind != opts.Kind {
			continue
		}
		if !opts.Since.IsZero() && doc.CreatedAt.Before(opts.Since) {
			continue
		}
		out = append(out, doc.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
