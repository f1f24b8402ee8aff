package sqlite

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
		args = append(args, opts.Since.UnixNano())
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
