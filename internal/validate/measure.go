package validate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Harshitk031/dbadvisor/internal/dialects"
	"github.com/Harshitk031/dbadvisor/internal/plan"
)

// Metrics is one measured execution profile: the plan shape from the
// engine's explain output plus wall-clock timing of a real run.
type Metrics struct {
	NodeType        plan.NodeType `json:"node_type"`
	Cost            float64       `json:"cost"`
	PlanRows        int64         `json:"plan_rows"`
	RowsReturned    int64         `json:"rows_returned"`
	ExecutionTimeMs float64       `json:"execution_time_ms"`
	IndexName       string        `json:"index_name,omitempty"`
}

// measureN runs the measurement protocol: iterations passes, each capturing
// the plan and timing a real execution, with a settling delay between passes.
// Numeric fields are averaged; the node type takes the majority value.
func measureN(ctx context.Context, conn *sql.Conn, engine string, ddl dialects.Dialect, query string, iterations int, settle time.Duration) (*Metrics, error) {
	if iterations < 1 {
		iterations = 1
	}

	samples := make([]*Metrics, 0, iterations)
	for i := 0; i < iterations; i++ {
		if i > 0 && settle > 0 {
			select {
			case <-time.After(settle):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		m, err := measureOnce(ctx, conn, engine, ddl, query)
		if err != nil {
			return nil, fmt.Errorf("measurement iteration %d: %w", i+1, err)
		}
		samples = append(samples, m)
	}

	return aggregate(samples), nil
}

// measureOnce captures the plan via the dialect's explain form, then times
// one real execution of the query.
func measureOnce(ctx context.Context, conn *sql.Conn, engine string, ddl dialects.Dialect, query string) (*Metrics, error) {
	payload, err := plan.Capture(ctx, conn, engine, ddl.ExplainSQL(query))
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	node, err := plan.Normalize(engine, payload)
	if err != nil {
		return nil, fmt.Errorf("normalize plan: %w", err)
	}

	rows, elapsed, err := timedRun(ctx, conn, query)
	if err != nil {
		return nil, fmt.Errorf("timed run: %w", err)
	}

	return &Metrics{
		NodeType:        accessNodeType(node),
		Cost:            node.TotalCost,
		PlanRows:        node.PlanRows,
		RowsReturned:    rows,
		ExecutionTimeMs: float64(elapsed) / float64(time.Millisecond),
		IndexName:       firstIndexName(node),
	}, nil
}

// timedRun executes the query, drains the result set, and returns the row
// count and wall-clock duration.
func timedRun(ctx context.Context, conn *sql.Conn, query string) (int64, time.Duration, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	return count, time.Since(start), nil
}

// accessNodeType picks the node that characterizes table access: the first
// scan node in depth-first order, falling back to the root.
func accessNodeType(root *plan.Node) plan.NodeType {
	var found plan.NodeType
	plan.Walk(root, func(n *plan.Node) {
		if found != "" {
			return
		}
		switch n.NodeType {
		case plan.FullScan, plan.IndexScan, plan.IndexOnlyScan, plan.BitmapScan, plan.RangeScan:
			found = n.NodeType
		}
	})
	if found == "" {
		return root.NodeType
	}
	return found
}

// firstIndexName returns the first index referenced anywhere in the plan.
func firstIndexName(root *plan.Node) string {
	var name string
	plan.Walk(root, func(n *plan.Node) {
		if name == "" && n.IndexName != "" {
			name = n.IndexName
		}
	})
	return name
}

// aggregate averages numeric fields and majority-votes the node type.
func aggregate(samples []*Metrics) *Metrics {
	agg := &Metrics{}
	votes := make(map[plan.NodeType]int)

	for _, s := range samples {
		agg.Cost += s.Cost
		agg.PlanRows += s.PlanRows
		agg.RowsReturned += s.RowsReturned
		agg.ExecutionTimeMs += s.ExecutionTimeMs
		votes[s.NodeType]++
		if agg.IndexName == "" {
			agg.IndexName = s.IndexName
		}
	}

	n := float64(len(samples))
	agg.Cost /= n
	agg.ExecutionTimeMs /= n
	agg.PlanRows = int64(float64(agg.PlanRows) / n)
	agg.RowsReturned = int64(float64(agg.RowsReturned) / n)

	best := 0
	for nt, c := range votes {
		if c > best {
			best = c
			agg.NodeType = nt
		}
	}
	return agg
}
