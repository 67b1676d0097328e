package dialects

import (
	"fmt"
	"strings"
)

// MySQLDialect implements MySQL-specific SQL generation.
type MySQLDialect struct{}

func init() {
	Register("mysql", &MySQLDialect{})
	Register("mariadb", &MySQLDialect{})
}

// QuoteIdentifier quotes a MySQL identifier using backticks.
func (d *MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// IndexName derives the conventional idx_<table>_<col1>_<col2> name.
func (d *MySQLDialect) IndexName(table string, columns []string) string {
	return indexName(table, columns)
}

// CreateIndexSQL builds a CREATE INDEX statement.
func (d *MySQLDialect) CreateIndexSQL(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		d.QuoteIdentifier(d.IndexName(table, columns)),
		d.QuoteIdentifier(table),
		quoteJoin(d, columns),
	)
}

// DropIndexSQL builds a DROP INDEX statement. MySQL requires the table.
func (d *MySQLDialect) DropIndexSQL(table, name string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", d.QuoteIdentifier(name), d.QuoteIdentifier(table))
}

// AnalyzeSQL refreshes planner statistics for table.
func (d *MySQLDialect) AnalyzeSQL(table string) string {
	return fmt.Sprintf("ANALYZE TABLE %s", d.QuoteIdentifier(table))
}

// ExplainSQL wraps query in EXPLAIN FORMAT=JSON.
func (d *MySQLDialect) ExplainSQL(query string) string {
	return "EXPLAIN FORMAT=JSON " + query
}

// ExplainAnalyzeSQL wraps query in EXPLAIN ANALYZE (MySQL 8.0.18+).
func (d *MySQLDialect) ExplainAnalyzeSQL(query string) string {
	return "EXPLAIN ANALYZE " + query
}
