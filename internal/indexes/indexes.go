// Package indexes inspects index usage statistics and produces the
// unused-index evidence rows consumed by the rule evaluator.
package indexes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/rules"
)

// Inspector finds candidate indexes whose usage counters suggest they can be
// dropped. SQLite keeps no usage statistics, so only postgres and mysql are
// supported.
type Inspector struct {
	db     *sql.DB
	engine string
	log    logger.Logger
}

// NewInspector creates an index-usage inspector for the named engine.
func NewInspector(db *sql.DB, engine string, log logger.Logger) (*Inspector, error) {
	switch engine {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("index usage inspection not supported for engine %q", engine)
	}
	if log == nil {
		log = &logger.NoopLogger{}
	}
	return &Inspector{db: db, engine: engine, log: log}, nil
}

// postgresUnusedQuery lists non-constraint indexes scanned at most maxScans
// times, largest first.
const postgresUnusedQuery = `
SELECT
    s.relname AS table_name,
    s.indexrelname AS index_name,
    s.idx_scan AS times_used,
    pg_size_pretty(pg_relation_size(s.indexrelid)) AS index_size
FROM pg_stat_user_indexes s
JOIN pg_index i ON s.indexrelid = i.indexrelid
WHERE s.idx_scan <= $1
  AND NOT i.indisunique
  AND NOT i.indisprimary
ORDER BY pg_relation_size(s.indexrelid) DESC`

// mysqlUnusedQuery lists indexes with no recorded use since server start.
const mysqlUnusedQuery = `
SELECT
    object_schema AS database_name,
    object_name AS table_name,
    index_name
FROM sys.schema_unused_indexes
ORDER BY object_schema, object_name, index_name`

// Unused returns one evidence row per candidate index. maxScans bounds the
// usage count a postgres index may have and still count as unused; MySQL's
// sys view already applies its own zero-use criterion.
func (in *Inspector) Unused(ctx context.Context, maxScans int64) ([]rules.UnusedIndex, error) {
	switch in.engine {
	case "postgres":
		return in.unusedPostgres(ctx, maxScans)
	case "mysql":
		return in.unusedMySQL(ctx)
	default:
		return nil, fmt.Errorf("index usage inspection not supported for engine %q", in.engine)
	}
}

func (in *Inspector) unusedPostgres(ctx context.Context, maxScans int64) ([]rules.UnusedIndex, error) {
	rows, err := in.db.QueryContext(ctx, postgresUnusedQuery, maxScans)
	if err != nil {
		return nil, fmt.Errorf("query pg_stat_user_indexes: %w", err)
	}
	defer rows.Close()

	var out []rules.UnusedIndex
	for rows.Next() {
		var idx rules.UnusedIndex
		idx.Engine = "postgres"
		if err := rows.Scan(&idx.Table, &idx.IndexName, &idx.TimesUsed, &idx.IndexSize); err != nil {
			return nil, fmt.Errorf("scan unused index row: %w", err)
		}
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read unused index rows: %w", err)
	}

	in.log.Debug("unused index inspection complete", "engine", in.engine, "candidates", len(out))
	return out, nil
}

func (in *Inspector) unusedMySQL(ctx context.Context) ([]rules.UnusedIndex, error) {
	rows, err := in.db.QueryContext(ctx, mysqlUnusedQuery)
	if err != nil {
		return nil, fmt.Errorf("query sys.schema_unused_indexes: %w", err)
	}
	defer rows.Close()

	var out []rules.UnusedIndex
	for rows.Next() {
		var idx rules.UnusedIndex
		idx.Engine = "mysql"
		if err := rows.Scan(&idx.Database, &idx.Table, &idx.IndexName); err != nil {
			return nil, fmt.Errorf("scan unused index row: %w", err)
		}
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read unused index rows: %w", err)
	}

	in.log.Debug("unused index inspection complete", "engine", in.engine, "candidates", len(out))
	return out, nil
}
