package plan

import (
	"context"
	"database/sql"
	"strings"
)

// Querier is the subset of *sql.DB and *sql.Conn needed to capture a plan.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Capture runs explainSQL and collects the engine's raw plan payload.
// SQLite returns one detail row per plan step; the JSON engines return the
// whole document in a single row.
func Capture(ctx context.Context, q Querier, engine, explainSQL string) ([]byte, error) {
	if strings.ToLower(engine) == "sqlite" {
		rows, err := q.QueryContext(ctx, explainSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var lines []string
		for rows.Next() {
			var id, parent, notused int
			var detail string
			if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
				return nil, err
			}
			lines = append(lines, detail)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return []byte(strings.Join(lines, "\n")), nil
	}

	var raw string
	if err := q.QueryRowContext(ctx, explainSQL).Scan(&raw); err != nil {
		return nil, err
	}
	return []byte(raw), nil
}
