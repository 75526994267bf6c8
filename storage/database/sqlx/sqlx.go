// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/fitdeskhq/fitdesk/core"
)

// orderBy renders an ORDER BY clause, defaulting to created_at when the caller
// did not ask for a specific ordering.
func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return " ORDER BY created_at"
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// where joins conditions with AND; empty input renders no clause.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters in a literal search term so that
// a value containing % or _ matches itself instead of acting as a wildcard.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
