// Package dialects provides database-specific DDL and diagnostic SQL for
// PostgreSQL, MySQL, and SQLite: identifier quoting, index statements, and
// the explain form each engine accepts.
package dialects

import "fmt"

// Dialect defines database-specific SQL generation.
type Dialect interface {
	// QuoteIdentifier quotes a schema object name.
	QuoteIdentifier(string) string
	// IndexName derives a deterministic index name for table and columns.
	IndexName(table string, columns []string) string
	// CreateIndexSQL builds a CREATE INDEX statement.
	CreateIndexSQL(table string, columns []string) string
	// DropIndexSQL builds the statement that removes index name on table.
	DropIndexSQL(table, name string) string
	// AnalyzeSQL builds the statement that refreshes planner statistics
	// for table. Empty when the engine has no such statement.
	AnalyzeSQL(table string) string
	// ExplainSQL wraps query in the engine's plan-estimate form.
	ExplainSQL(query string) string
	// ExplainAnalyzeSQL wraps query in the engine's instrumented form.
	// Empty when the engine cannot instrument execution.
	ExplainAnalyzeSQL(query string) string
}

var dialects = make(map[string]Dialect)

// Register registers a dialect by engine name.
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by engine name.
func Get(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
	return d, nil
}

// MustGet retrieves a registered dialect, panicking if not found. Use only
// with engine names already normalized by config.NormalizeEngine.
func MustGet(name string) Dialect {
	d, err := Get(name)
	if err != nil {
		panic(err)
	}
	return d
}
