package dialects

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements SQLite-specific SQL generation.
type SQLiteDialect struct{}

func init() {
	Register("sqlite", &SQLiteDialect{})
	Register("sqlite3", &SQLiteDialect{})
}

// QuoteIdentifier quotes a SQLite identifier using double quotes.
func (d *SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// IndexName derives the conventional idx_<table>_<col1>_<col2> name.
func (d *SQLiteDialect) IndexName(table string, columns []string) string {
	return indexName(table, columns)
}

// CreateIndexSQL builds a CREATE INDEX statement.
func (d *SQLiteDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(d.IndexName(table, columns)),
		d.QuoteIdentifier(table),
		quoteJoin(d, columns),
	)
}

// DropIndexSQL builds a DROP INDEX statement. SQLite drops indexes by name.
func (d *SQLiteDialect) DropIndexSQL(_, name string) string {
	return fmt.Sprintf("DROP INDEX %s", d.QuoteIdentifier(name))
}

// AnalyzeSQL refreshes query planner statistics for table.
func (d *SQLiteDialect) AnalyzeSQL(table string) string {
	return fmt.Sprintf("ANALYZE %s", d.QuoteIdentifier(table))
}

// ExplainSQL wraps query in EXPLAIN QUERY PLAN. The output is text, not JSON.
func (d *SQLiteDialect) ExplainSQL(query string) string {
	return "EXPLAIN QUERY PLAN " + query
}

// ExplainAnalyzeSQL returns empty: SQLite has no instrumented explain.
// Callers fall back to timing the query directly.
func (d *SQLiteDialect) ExplainAnalyzeSQL(_ string) string {
	return ""
}
