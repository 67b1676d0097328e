package dialects

import (
	"fmt"
	"strings"
)

// PostgresDialect implements PostgreSQL-specific SQL generation.
type PostgresDialect struct{}

func init() {
	Register("postgres", &PostgresDialect{})
	Register("postgresql", &PostgresDialect{})
}

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes.
func (d *PostgresDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// IndexName derives the conventional idx_<table>_<col1>_<col2> name.
func (d *PostgresDialect) IndexName(table string, columns []string) string {
	return indexName(table, columns)
}

// CreateIndexSQL builds a CREATE INDEX statement.
func (d *PostgresDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(d.IndexName(table, columns)),
		d.QuoteIdentifier(table),
		quoteJoin(d, columns),
	)
}

// DropIndexSQL builds a DROP INDEX statement. PostgreSQL drops indexes by
// name alone.
func (d *PostgresDialect) DropIndexSQL(_, name string) string {
	return fmt.Sprintf("DROP INDEX %s", d.QuoteIdentifier(name))
}

// AnalyzeSQL refreshes planner statistics for table.
func (d *PostgresDialect) AnalyzeSQL(table string) string {
	return fmt.Sprintf("ANALYZE %s", d.QuoteIdentifier(table))
}

// ExplainSQL wraps query in EXPLAIN (FORMAT JSON).
func (d *PostgresDialect) ExplainSQL(query string) string {
	return "EXPLAIN (FORMAT JSON) " + query
}

// ExplainAnalyzeSQL wraps query in the instrumented EXPLAIN form.
func (d *PostgresDialect) ExplainAnalyzeSQL(query string) string {
	return "EXPLAIN (ANALYZE, FORMAT JSON, BUFFERS) " + query
}
