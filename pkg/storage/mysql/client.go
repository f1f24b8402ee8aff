// Package mysql provides a MySQL-protocol implementation of storage.RecordStore.
//
// It works against MySQL and MySQL-compatible databases such as OceanBase and TiDB.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// Client is a MySQL record store client.
type Client struct {
	db        *sql.DB
	config    *Config
	tableName string
}

// Config contains MySQL configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
}

// NewClient creates a new MySQL client.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	tableName := cfg.TableName
	if tableName == "" {
		tableName = "documents"
	}

	client := &Client{
		db:        db,
		config:    cfg,
		tableName: tableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection VARCHAR(64) NOT NULL,
			id VARCHAR(128) NOT NULL,
			user_id VARCHAR(128) NOT NULL DEFAULT '',
			kind VARCHAR(64) NOT NULL DEFAULT '',
			body JSON NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			PRIMARY KEY (collection, id),
			INDEX idx_user_created (collection, user_id, created_at)
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
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
		ON DUPLICATE KEY UPDATE
			user_id = VALUES(user_id),
			kind = VALUES(kind),
			body = VALUES(body),
			created_at = VALUES(created_at),
			updated_at = VALUES(updated_at)
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query,
		doc.Collection,
		doc.ID,
		doc.UserID,
		doc.Kind,
		string(doc.Body),
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
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
