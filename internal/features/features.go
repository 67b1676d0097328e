// Package features extracts structural features from SQL query text.
// The extractor is intentionally lightweight: it recognizes the statement
// kind, the primary table, and the columns referenced by the top-level WHERE
// predicate. It is not a full SQL parser.
package features

import (
	"fmt"
	"regexp"
	"strings"
)

// QueryType classifies the statement kind.
type QueryType string

const (
	// QuerySelect is a SELECT (or WITH ... SELECT) statement.
	QuerySelect QueryType = "SELECT"
	// QueryInsert is an INSERT statement.
	QueryInsert QueryType = "INSERT"
	// QueryUpdate is an UPDATE statement.
	QueryUpdate QueryType = "UPDATE"
	// QueryDelete is a DELETE statement.
	QueryDelete QueryType = "DELETE"
	// QueryUnknown is a statement the extractor recognizes but does not classify.
	QueryUnknown QueryType = "UNKNOWN"
)

// QueryFeatures holds the structural features of one statement.
type QueryFeatures struct {
	QueryType    QueryType `json:"query_type"`
	TableName    string    `json:"table_name,omitempty"`
	WhereColumns []string  `json:"where_columns"`
	HasWhere     bool      `json:"has_where"`
	HasOrderBy   bool      `json:"has_order_by"`
	HasGroupBy   bool      `json:"has_group_by"`
	HasJoins     bool      `json:"has_joins"`
}

// ParseError reports query text that could not be analyzed.
type ParseError struct {
	Message string
	Query   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s (query: %s)", e.Message, e.Query)
}

// statementKeywords are the leading keywords the extractor accepts as a statement.
var statementKeywords = map[string]QueryType{
	"select":  QuerySelect,
	"with":    QuerySelect,
	"insert":  QueryInsert,
	"update":  QueryUpdate,
	"delete":  QueryDelete,
	"create":  QueryUnknown,
	"alter":   QueryUnknown,
	"drop":    QueryUnknown,
	"explain": QueryUnknown,
	"vacuum":  QueryUnknown,
	"analyze": QueryUnknown,
	"pragma":  QueryUnknown,
	"set":     QueryUnknown,
	"show":    QueryUnknown,
}

// Extract parses query text into QueryFeatures.
// It returns a ParseError when the text is empty or does not start like a
// SQL statement. The extractor is a pure function with no side effects.
func Extract(query string) (*QueryFeatures, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, &ParseError{Message: "query text is empty", Query: query}
	}

	lower := strings.ToLower(trimmed)
	first := firstWord(lower)
	qt, ok := statementKeywords[first]
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("unrecognized statement %q", first), Query: trimmed}
	}

	f := &QueryFeatures{
		QueryType:    qt,
		WhereColumns: []string{},
	}

	f.TableName = extractTableName(lower, qt)

	whereClause, found := topLevelWhereClause(lower)
	if found {
		f.HasWhere = true
		f.WhereColumns = extractWhereColumns(whereClause)
	}

	f.HasOrderBy = hasTopLevelKeyword(lower, "order by")
	f.HasGroupBy = hasTopLevelKeyword(lower, "group by")
	f.HasJoins = hasTopLevelKeyword(lower, "join")

	return f, nil
}

// firstWord returns the first whitespace-delimited token.
func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '(' {
			return s[:i]
		}
	}
	return s
}

var (
	fromPattern   = regexp.MustCompile(`\bfrom\s+([a-z_][a-z0-9_.]*)`)
	intoPattern   = regexp.MustCompile(`\binto\s+([a-z_][a-z0-9_.]*)`)
	updatePattern = regexp.MustCompile(`^update\s+([a-z_][a-z0-9_.]*)`)
)

// extractTableName pulls the primary table out of the statement.
func extractTableName(lower string, qt QueryType) string {
	var m []string
	switch qt {
	case QueryInsert:
		m = intoPattern.FindStringSubmatch(lower)
	case QueryUpdate:
		m = updatePattern.FindStringSubmatch(lower)
	default:
		m = fromPattern.FindStringSubmatch(lower)
	}
	if len(m) < 2 {
		return ""
	}
	// Strip a schema qualifier: "public.orders" -> "orders".
	parts := strings.Split(m[1], ".")
	return parts[len(parts)-1]
}

// topLevelWhereClause returns the text of the top-level WHERE predicate.
// The scan is parenthesis-depth aware: a WHERE inside a subquery in the
// SELECT list or FROM clause is skipped, while the returned clause keeps
// any subqueries that are part of the top-level filter tree. The clause
// ends at a top-level ORDER BY / GROUP BY / HAVING / LIMIT or statement end.
func topLevelWhereClause(lower string) (string, bool) {
	start := indexAtDepthZero(lower, "where", 0)
	if start == -1 {
		return "", false
	}
	clause := lower[start+len("where"):]

	end := len(clause)
	for _, terminator := range []string{"order by", "group by", "having", "limit", ";"} {
		if idx := indexAtDepthZero(clause, terminator, 0); idx != -1 && idx < end {
			end = idx
		}
	}
	return strings.TrimSpace(clause[:end]), true
}

// indexAtDepthZero finds keyword in s at parenthesis depth zero, honoring
// word boundaries and quoted strings. Returns -1 when not found.
func indexAtDepthZero(s, keyword string, from int) int {
	depth := 0
	inString := false
	for i := from; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			inString = !inString
		case inString:
			// skip quoted content
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && strings.HasPrefix(s[i:], keyword) && isWordBoundary(s, i, len(keyword)) {
				return i
			}
		}
	}
	return -1
}

// isWordBoundary reports whether s[i:i+n] sits on identifier boundaries.
func isWordBoundary(s string, i, n int) bool {
	if i > 0 && isIdentChar(s[i-1]) {
		return false
	}
	end := i + n
	if end < len(s) && isIdentChar(s[end]) {
		return false
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// columnRefPattern matches a column reference followed by a comparison
// operator. Qualified references keep only the column part; an optional
// closing parenthesis lets function-wrapped columns (UPPER(email) = ?) match.
var columnRefPattern = regexp.MustCompile(`([a-z_][a-z0-9_.]*)\s*\)?\s*(?:=|!=|<>|>=|<=|>|<|\blike\b|\bin\b|\bbetween\b|\bis\b)`)

// sqlKeywords are words that look like column references but are not.
var sqlKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "null": true,
	"true": true, "false": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "exists": true,
	"select": true, "from": true, "where": true, "in": true,
	"like": true, "between": true, "is": true,
}

// extractWhereColumns collects column references from a WHERE clause in
// first-occurrence order with duplicates removed.
func extractWhereColumns(clause string) []string {
	matches := columnRefPattern.FindAllStringSubmatch(clause, -1)

	seen := make(map[string]bool)
	columns := []string{}
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		col := columnName(m[1])
		if col == "" || sqlKeywords[col] || seen[col] {
			continue
		}
		columns = append(columns, col)
		seen[col] = true
	}
	return columns
}

// columnName strips a table/alias qualifier: "o.customer_id" -> "customer_id".
func columnName(ref string) string {
	parts := strings.Split(ref, ".")
	return parts[len(parts)-1]
}

// hasTopLevelKeyword reports whether keyword appears at parenthesis depth zero.
func hasTopLevelKeyword(lower, keyword string) bool {
	return indexAtDepthZero(lower, keyword, 0) != -1
}
