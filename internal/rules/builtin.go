package rules

import (
	"fmt"
	"strings"

	"github.com/Harshitk031/dbadvisor/internal/dialects"
	"github.com/Harshitk031/dbadvisor/internal/plan"
)

// builtinRules returns the default advisory rule set.
func builtinRules() []Rule {
	return []Rule{
		{ID: "MISSING_INDEX_001", Check: checkMissingIndex},
		{ID: "INEFFICIENT_SORT_001", Check: checkInefficientSort},
		{ID: "NESTED_LOOP_001", Check: checkNestedLoopJoin},
		{ID: "MISSING_STATS_001", Check: checkMissingStatistics},
	}
}

// checkMissingIndex fires on a full scan of a table filtered by a WHERE
// clause. Severity tracks the estimated cost.
func checkMissingIndex(in Input) []*Recommendation {
	n := in.Node
	if n.NodeType != plan.FullScan || in.Features == nil || len(in.Features.WhereColumns) == 0 {
		return nil
	}

	table := n.Relation
	if table == "" {
		table = in.Features.TableName
	}
	if table == "" {
		return nil
	}
	columns := in.Features.WhereColumns

	severity := SeverityLow
	switch {
	case n.TotalCost > 1000:
		severity = SeverityHigh
	case n.TotalCost > 100:
		severity = SeverityMedium
	}

	return []*Recommendation{{
		RuleID:   "MISSING_INDEX_001",
		Type:     TypeMissingIndex,
		Severity: severity,
		Table:    table,
		Columns:  columns,
		Rationale: fmt.Sprintf("Full scan on %q filtered by %s (cost %.2f, rows %d)",
			table, strings.Join(columns, ", "), n.TotalCost, n.ActualRows),
		SuggestedAction: in.DDL.CreateIndexSQL(table, columns),
		Caveats: []string{
			"Verify index effectiveness on a staging copy before production use",
			"Indexes add write and maintenance overhead",
		},
		Evidence: map[string]any{
			"node_type":        string(n.NodeType),
			"total_cost":       n.TotalCost,
			"actual_rows":      n.ActualRows,
			"filtered_columns": columns,
		},
	}}
}

// checkInefficientSort fires when a sort spilled to disk.
func checkInefficientSort(in Input) []*Recommendation {
	n := in.Node
	if n.NodeType != plan.Sort || n.SortMethod != plan.SortMethodExternalMerge {
		return nil
	}

	rec := &Recommendation{
		RuleID:   "INEFFICIENT_SORT_001",
		Type:     TypeInefficientSort,
		Severity: SeverityHigh,
		Table:    n.Relation,
		Columns:  n.SortKey,
		Rationale: fmt.Sprintf("Sort on (%s) spilled to disk; an external merge reads and writes temporary files",
			strings.Join(n.SortKey, ", ")),
		Caveats: []string{
			"Check whether the sort is necessary or a LIMIT can shrink it",
			"A larger sort memory budget may avoid the spill without an index",
		},
		Evidence: map[string]any{
			"node_type":   string(n.NodeType),
			"sort_method": n.SortMethod,
			"sort_key":    n.SortKey,
		},
	}

	// An index on the sort key lets the engine read rows pre-ordered.
	table := sortTable(in)
	if table != "" && len(n.SortKey) > 0 {
		rec.Table = table
		rec.SuggestedAction = in.DDL.CreateIndexSQL(table, sortKeyColumns(n.SortKey))
	}
	return []*Recommendation{rec}
}

// sortTable resolves the table under a sort node: the sort's own relation,
// the first child relation, or the statement's primary table.
func sortTable(in Input) string {
	if in.Node.Relation != "" {
		return in.Node.Relation
	}
	for _, child := range in.Node.Children {
		if child.Relation != "" {
			return child.Relation
		}
	}
	if in.Features != nil {
		return in.Features.TableName
	}
	return ""
}

// sortKeyColumns strips table qualifiers from sort key expressions.
func sortKeyColumns(keys []string) []string {
	cols := make([]string, len(keys))
	for i, k := range keys {
		parts := strings.Split(strings.TrimSpace(k), ".")
		cols[i] = parts[len(parts)-1]
	}
	return cols
}

// checkNestedLoopJoin fires on a high-cost nested loop.
func checkNestedLoopJoin(in Input) []*Recommendation {
	n := in.Node
	if n.NodeType != plan.NestedLoop || n.TotalCost <= 1000 {
		return nil
	}

	return []*Recommendation{{
		RuleID:   "NESTED_LOOP_001",
		Type:     TypeNestedLoopJoin,
		Severity: SeverityMedium,
		Rationale: fmt.Sprintf("High-cost nested loop join (cost %.2f); the inner side is re-scanned per outer row",
			n.TotalCost),
		SuggestedAction: "Add indexes on the join columns or let the planner choose a hash or merge join",
		Caveats: []string{
			"Nested loops are efficient for small inner sides; verify row counts first",
			"Stale statistics can force a nested loop where a hash join is cheaper",
		},
		Evidence: map[string]any{
			"node_type":  string(n.NodeType),
			"join_type":  n.JoinType,
			"total_cost": n.TotalCost,
		},
	}}
}

// missingStatsErrorThreshold is the relative row-estimate error above which
// planner statistics are considered stale.
const missingStatsErrorThreshold = 0.5

// checkMissingStatistics fires when the planner's row estimate diverges from
// the observed count by more than half.
func checkMissingStatistics(in Input) []*Recommendation {
	n := in.Node
	if n.PlanRows <= 0 || n.ActualRows <= 0 {
		return nil
	}

	larger := n.PlanRows
	if n.ActualRows > larger {
		larger = n.ActualRows
	}
	diff := n.PlanRows - n.ActualRows
	if diff < 0 {
		diff = -diff
	}
	estimationError := float64(diff) / float64(larger)
	if estimationError <= missingStatsErrorThreshold {
		return nil
	}

	action := "Refresh planner statistics for the affected tables"
	if n.Relation != "" {
		action = in.DDL.AnalyzeSQL(n.Relation)
	}

	return []*Recommendation{{
		RuleID:   "MISSING_STATS_001",
		Type:     TypeMissingStatistic,
		Severity: SeverityMedium,
		Table:    n.Relation,
		Rationale: fmt.Sprintf("Row estimate off by %.0f%%: planned %d, observed %d",
			estimationError*100, n.PlanRows, n.ActualRows),
		SuggestedAction: action,
		Caveats: []string{
			"Run statistics refresh during a low-traffic window",
			"Re-check the plan after the refresh before applying other changes",
		},
		Evidence: map[string]any{
			"planned_rows":     n.PlanRows,
			"actual_rows":      n.ActualRows,
			"estimation_error": estimationError,
		},
	}}
}

// unusedIndexCandidate builds one removal candidate from an evidence row.
func unusedIndexCandidate(idx *UnusedIndex, ddl dialects.Dialect) *Recommendation {
	rationale := fmt.Sprintf("Index %q on %q has been used %d times; dropping it saves space and write overhead",
		idx.IndexName, idx.Table, idx.TimesUsed)
	if idx.IndexSize != "" {
		rationale = fmt.Sprintf("Index %q on %q has been used %d times; dropping it saves %s and write overhead",
			idx.IndexName, idx.Table, idx.TimesUsed, idx.IndexSize)
	}

	return &Recommendation{
		RuleID:          "UNUSED_INDEX_001",
		Type:            TypeUnusedIndex,
		Severity:        SeverityMedium,
		Table:           idx.Table,
		IndexName:       idx.IndexName,
		Rationale:       rationale,
		SuggestedAction: ddl.DropIndexSQL(idx.Table, idx.IndexName),
		Caveats: []string{
			"Verify the index is not needed by infrequent but important queries before dropping",
			"Usage counters reset on server restart; confirm the observation window is long enough",
			"Take a schema backup before dropping",
		},
		Evidence: map[string]any{
			"engine":     idx.Engine,
			"table_name": idx.Table,
			"index_name": idx.IndexName,
			"times_used": idx.TimesUsed,
			"index_size": idx.IndexSize,
		},
	}
}
