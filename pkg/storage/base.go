// Package storage provides the record store abstraction used by MindTuner.
//
// The store is a key-addressed document store: every document lives in a named
// collection, is addressed by an opaque id, and carries a JSON body plus the
// few indexed columns (user, kind, timestamps) that range queries filter on.
// Typed records never touch this shape directly; each owning package keeps an
// explicit adapter that converts its records to and from Document.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no document exists for the given key.
var ErrNotFound = errors.New("document not found")

// Collection names used by the MindTuner components.
const (
	CollectionRatings      = "ratings"
	CollectionMeditations  = "meditations"
	CollectionUserFeedback = "user_feedback"
	CollectionHealthCheck  = "health_check"
)

// Document is a single stored document.
type Document struct {
	// Collection is the logical collection the document belongs to.
	Collection string

	// ID is the document key, unique within its collection.
	ID string

	// UserID is the owning user, indexed for range queries.
	UserID string

	// Kind is an optional secondary filter (e.g. the rating kind).
	Kind string

	// Body is the JSON-encoded typed record.
	Body json.RawMessage

	// CreatedAt orders range query results (newest first).
	CreatedAt time.Time

	// UpdatedAt is when the document was last written.
	UpdatedAt time.Time
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.Body != nil {
		c.Body = append(json.RawMessage(nil), d.Body...)
	}
	return &c
}

// QueryOptions filters a range query. Empty fields are not filtered on.
type QueryOptions struct {
	// Collection is required.
	Collection string

	// UserID restricts results to one user.
	UserID string

	// Kind restricts results to one kind.
	Kind string

	// Since keeps only documents created at or after this instant.
	Since time.Time

	// Limit caps the number of results. Zero or negative means no limit.
	Limit int
}

// RecordStore defines the interface for document storage backends.
//
// All implementations (memory, SQLite, PostgreSQL, MySQL) must implement it.
type RecordStore interface {
	// Upsert inserts the document or replaces the existing one with the same
	// collection and id.
	Upsert(ctx context.Context, doc *Document) error

	// Get returns the document, or ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns matching documents ordered by CreatedAt descending.
	Query(ctx context.Context, opts *QueryOptions) ([]*Document, error)

	// Ping verifies that the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

// ErrMissingCollection is returned when a call omits the collection name.
var ErrMissingCollection = errors.New("collection is required")

// ValidateDocument checks the fields every backend requires on write.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if doc.Collection == "" {
		return ErrMissingCollection
	}
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	return nil
}
