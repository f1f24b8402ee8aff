package postgres

import (
	"fmt"
	"strings"

	"github.com/mindtuner/mindtuner-go/pkg/storage"
)

// buildWhereClause builds a WHERE clause starting from $1.
func buildWhereClause(opts *storage.QueryOptions) (string, []interface{}) {
	return buildWhereClauseWithOffset(opts, 1)
}

// buildWhereClauseWithOffset builds a WHERE clause starting from a specific parameter index.
func buildWhereClauseWithOffset(opts *storage.QueryOptions, startIndex int) (string, []interface{}) {
	conditions := []string{fmt.Sprintf("collection = $%d", startIndex)}
	args := []interface{}{opts.Collection}
	argIndex := startIndex + 1

	if opts.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, opts.UserID)
		argIndex++
	}

	if opts.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, opts.Kind)
		argIndex++
	}

	if !opts.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
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
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	return &doc, nil
}
