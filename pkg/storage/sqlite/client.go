// Package sqlite provides a SQLite implementation of storage.RecordStore.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-node deployments. All collections share one table keyed by
// (collection, id); timestamps are stored as Unix nanoseconds so that range
// ordering never depends on string formatting.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// Client implements RecordStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing documents.
	tableName string
}

// Config contains configuration for creating a SQLite RecordStore.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table to use. Defaults to "documents".
	TableName string
}

// NewClient creates a new SQLite RecordStore client.
//
// Parameters:
//   - cfg: Configuration containing database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	tableName := cfg.TableName
	if tableName == "" {
		tableName = "documents"
	}

	client := &Client{
		db:        db,
		tableName: tableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables creates the document table and its query index.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_user_created ON %s(collection, user_id, created_at)
	`, c.tableName, c.tableName)
	if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Upsert inserts or replaces a document.
func (c *Client) Upsert(ctx context.Context, doc *storage.Document) error {
	if err := storage.ValidateDocument(doc); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (collection, id, user_id, kind, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			user_id = excluded.user_id,
			kind = excluded.kind,
			body = excluded.body,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query,
		doc.Collection,
		doc.ID,
		doc.UserID,
		doc.Kind,
		string(doc.Body),
		doc.CreatedAt.UnixNano(),
		doc.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Get retrieves a document by collection and id.
func (c *Client) Get(ctx context.Context, collection, id string) (*storage.Document, error) {
	query := fmt.Sprintf(`
		SELECT collection, id, user_id, kind, body, created_at, updated_at
		FROM %s
		WHERE collection = ? AND id = ?
	`, c.tableName)

	doc, err := scanDocument(c.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return doc, nil
}

// Delete removes a document. Missing documents are ignored.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND id = ?`, c.tableName)
	if _, err := c.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// Query returns matching documents ordered by created_at descending.
func (c *Client) Query(ctx context.Context, opts *storage.QueryOptions) ([]*storage.Document, error) {
	if opts == nil || opts.Collection == "" {
		return nil, storage.ErrMissingCollection
	}

	whereClause, args := buildWhereClause(opts)
	query := fmt.Sprintf(`
		SELECT collection, id, user_id, kind, body, created_at, updated_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
	`, c.tableName, whereClause)

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*storage.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("Query: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	return docs, nil
}

// Ping verifies the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*storage.Document, error) {
	var (
		doc       storage.Document
		body      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&doc.Collection, &doc.ID, &doc.UserID, &doc.Kind, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.Body = []byte(body)
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &doc, nil
}
