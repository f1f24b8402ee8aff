package mysql

import (
	"strings"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// buildWhereClause builds a WHERE clause with ? placeholders.
func buildWhereClause(opts *storage.QueryOptions) (string, []interface{}) {
	conditions := []string{"collection = ?"}
	args := []interface{}{opts.Collection}

	if opts.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, opts.Kind)
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.Since.UTC())
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*storage.Document, error) {
	var (
		doc  storage.Document
		body []byte
	)
	if err := row.Scan(&doc.Collection, &doc.ID, &doc.UserID, &doc.Kind, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Body = body
	return &doc, nil
}
