package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk031/dbadvisor/internal/features"
	"github.com/Harshitk031/dbadvisor/internal/logger"
	"github.com/Harshitk031/dbadvisor/internal/plan"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("postgres", &logger.NoopLogger{})
	require.NoError(t, err)
	return e
}

func TestEvaluateMissingIndexHighSeverity(t *testing.T) {
	e := newTestEngine(t)

	p := &plan.Node{
		NodeType:   plan.FullScan,
		Relation:   "orders",
		TotalCost:  1887.0,
		PlanRows:   98,
		ActualRows: 99,
	}
	f := &features.QueryFeatures{
		QueryType:    features.QuerySelect,
		TableName:    "orders",
		WhereColumns: []string{"customer_id"},
		HasWhere:     true,
	}

	recs, warnings := e.Evaluate(p, f, nil)
	assert.Empty(t, warnings)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, TypeMissingIndex, rec.Type)
	assert.Equal(t, SeverityHigh, rec.Severity)
	assert.Equal(t, "orders", rec.Table)
	assert.Contains(t, rec.SuggestedAction, "CREATE INDEX")
	assert.Contains(t, rec.SuggestedAction, `"orders"`)
	assert.Contains(t, rec.SuggestedAction, `"customer_id"`)
	assert.NotEmpty(t, rec.Caveats)
	assert.Equal(t, 1887.0, rec.Evidence["total_cost"])
}

func TestMissingIndexSeverityTiers(t *testing.T) {
	tests := []struct {
		cost float64
		want Severity
	}{
		{50, SeverityLow},
		{100, SeverityLow},
		{100.1, SeverityMedium},
		{1000, SeverityMedium},
		{1000.1, SeverityHigh},
	}
	f := &features.QueryFeatures{WhereColumns: []string{"a"}, TableName: "t"}
	for _, tt := range tests {
		e := newTestEngine(t)
		recs, _ := e.Evaluate(&plan.Node{NodeType: plan.FullScan, Relation: "t", TotalCost: tt.cost}, f, nil)
		require.Len(t, recs, 1)
		assert.Equal(t, tt.want, recs[0].Severity, "cost %v", tt.cost)
	}
}

func TestMissingIndexNeverFiresWithoutFullScan(t *testing.T) {
	// The trigger depends only on the node type and the WHERE columns, never
	// on cost or row values.
	e := newTestEngine(t)
	f := &features.QueryFeatures{WhereColumns: []string{"customer_id"}, TableName: "orders"}

	otherTypes := []plan.NodeType{
		plan.IndexScan, plan.IndexOnlyScan, plan.BitmapScan, plan.RangeScan,
		plan.Sort, plan.NestedLoop, plan.HashJoin, plan.MergeJoin,
		plan.Aggregate, plan.Unknown,
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := &plan.Node{
			NodeType:   otherTypes[rng.Intn(len(otherTypes))],
			Relation:   "orders",
			TotalCost:  rng.Float64() * 1e6,
			PlanRows:   rng.Int63n(1e6),
			ActualRows: rng.Int63n(1e6),
		}
		recs, _ := e.Evaluate(n, f, nil)
		for _, rec := range recs {
			assert.NotEqual(t, TypeMissingIndex, rec.Type, "node type %s", n.NodeType)
		}
	}
}

func TestMissingIndexRequiresWhereColumns(t *testing.T) {
	e := newTestEngine(t)
	n := &plan.Node{NodeType: plan.FullScan, Relation: "orders", TotalCost: 5000}

	recs, _ := e.Evaluate(n, &features.QueryFeatures{}, nil)
	assert.Empty(t, recs)
}

func TestInefficientSortRule(t *testing.T) {
	e := newTestEngine(t)
	p := &plan.Node{
		NodeType:   plan.Sort,
		SortKey:    []string{"orders.created_at"},
		SortMethod: plan.SortMethodExternalMerge,
		Children: []*plan.Node{
			{NodeType: plan.FullScan, Relation: "orders"},
		},
	}

	recs, _ := e.Evaluate(p, &features.QueryFeatures{TableName: "orders"}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeInefficientSort, recs[0].Type)
	assert.Equal(t, SeverityHigh, recs[0].Severity)
	assert.Contains(t, recs[0].SuggestedAction, `"created_at"`)
}

func TestInefficientSortIgnoresInMemorySort(t *testing.T) {
	e := newTestEngine(t)
	p := &plan.Node{NodeType: plan.Sort, SortMethod: "quicksort", SortKey: []string{"a"}}

	recs, _ := e.Evaluate(p, &features.QueryFeatures{}, nil)
	assert.Empty(t, recs)
}

func TestNestedLoopJoinRule(t *testing.T) {
	e := newTestEngine(t)

	cheap := &plan.Node{NodeType: plan.NestedLoop, TotalCost: 900}
	recs, _ := e.Evaluate(cheap, &features.QueryFeatures{}, nil)
	assert.Empty(t, recs)

	expensive := &plan.Node{NodeType: plan.NestedLoop, TotalCost: 1500, JoinType: "Inner"}
	recs, _ = e.Evaluate(expensive, &features.QueryFeatures{}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeNestedLoopJoin, recs[0].Type)
	assert.Equal(t, SeverityMedium, recs[0].Severity)
}

func TestMissingStatisticsRule(t *testing.T) {
	e := newTestEngine(t)

	// 98 vs 99 is within tolerance.
	close := &plan.Node{NodeType: plan.IndexScan, Relation: "orders", PlanRows: 98, ActualRows: 99}
	recs, _ := e.Evaluate(close, &features.QueryFeatures{}, nil)
	assert.Empty(t, recs)

	// 100 planned vs 1000 actual is a 90% error.
	off := &plan.Node{NodeType: plan.IndexScan, Relation: "orders", PlanRows: 100, ActualRows: 1000}
	recs, _ = e.Evaluate(off, &features.QueryFeatures{}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeMissingStatistic, recs[0].Type)
	assert.Contains(t, recs[0].SuggestedAction, "ANALYZE")
}

func TestMissingStatisticsBoundary(t *testing.T) {
	e := newTestEngine(t)
	// Exactly 50% error does not fire.
	n := &plan.Node{NodeType: plan.IndexScan, PlanRows: 50, ActualRows: 100}
	recs, _ := e.Evaluate(n, &features.QueryFeatures{}, nil)
	assert.Empty(t, recs)
}

func TestUnusedIndexCandidates(t *testing.T) {
	e := newTestEngine(t)
	evidence := []UnusedIndex{
		{Engine: "postgres", Table: "orders", IndexName: "idx_orders_legacy", TimesUsed: 0, IndexSize: "120 MB"},
		{Engine: "postgres", Table: "users", IndexName: "idx_users_old", TimesUsed: 2},
	}

	recs, _ := e.Evaluate(nil, nil, evidence)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, TypeUnusedIndex, rec.Type)
		assert.Equal(t, SeverityMedium, rec.Severity)
		assert.Contains(t, rec.SuggestedAction, "DROP INDEX")
		assert.NotEmpty(t, rec.Caveats)
	}
	assert.Contains(t, recs[0].Rationale, "120 MB")
}

func TestEvaluateTreeWalk(t *testing.T) {
	e := newTestEngine(t)
	root := &plan.Node{
		NodeType:  plan.NestedLoop,
		TotalCost: 5000,
		Children: []*plan.Node{
			{NodeType: plan.FullScan, Relation: "orders", TotalCost: 2000},
			{NodeType: plan.IndexScan, Relation: "customers"},
		},
	}
	f := &features.QueryFeatures{WhereColumns: []string{"customer_id"}, TableName: "orders"}

	recs, _ := e.Evaluate(root, f, nil)

	var types []Type
	for _, rec := range recs {
		types = append(types, rec.Type)
	}
	assert.Contains(t, types, TypeNestedLoopJoin)
	assert.Contains(t, types, TypeMissingIndex)
}

func TestRuleFailureIsIsolated(t *testing.T) {
	e := newTestEngine(t)
	e.Register(Rule{ID: "BROKEN_001", Check: func(Input) []*Recommendation {
		panic("boom")
	}})

	p := &plan.Node{NodeType: plan.FullScan, Relation: "orders", TotalCost: 1500}
	f := &features.QueryFeatures{WhereColumns: []string{"customer_id"}}

	recs, warnings := e.Evaluate(p, f, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeMissingIndex, recs[0].Type)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "BROKEN_001")
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
}
