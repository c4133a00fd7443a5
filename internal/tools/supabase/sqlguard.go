package supabase

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation is the outcome of read-only SQL validation, derived solely from
// the literal query text. The query is never executed to determine validity.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Mutating or privilege-changing keywords, rejected as substrings anywhere
// in the query. False positives are expected: a column named "dropout" is
// rejected too.
var blockedKeywords = []string{
	"insert", "update", "delete", "drop", "create", "alter",
	"truncate", "grant", "revoke", "exec", "execute",
}

var limitClause = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// DefaultRowLimit is appended to valid queries with no LIMIT clause, a hard
// ceiling on result size.
const DefaultRowLimit = 200

// ValidateReadOnlyQuery checks that a query is a single read-only statement.
//
// Rules, in order:
//  1. at most one statement (split on ";", count non-blank segments)
//  2. the trimmed, lower-cased query must start with "select" or "with"
//  3. no blocked keyword may appear anywhere as a substring
func ValidateReadOnlyQuery(sql string) Validation {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return Validation{Valid: false, Error: "empty query"}
	}

	segments := 0
	for _, seg := range strings.Split(trimmed, ";") {
		if strings.TrimSpace(seg) != "" {
			segments++
		}
	}
	if segments > 1 {
		return Validation{Valid: false, Error: "multiple statements are not allowed"}
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return Validation{Valid: false, Error: "only SELECT and WITH queries are allowed"}
	}

	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			return Validation{Valid: false, Error: fmt.Sprintf("query contains blocked keyword %q", strings.ToUpper(kw))}
		}
	}

	return Validation{Valid: true}
}

// EnsureRowLimit appends "LIMIT 200" to a validated query that has no LIMIT
// clause of its own. A trailing semicolon is dropped first.
func EnsureRowLimit(sql string) string {
	trimmed := strings.TrimSpace(sql)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if limitClause.MatchString(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, DefaultRowLimit)
}
