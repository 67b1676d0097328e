package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostgresNormalizer maps EXPLAIN (FORMAT JSON) output to the canonical tree.
type PostgresNormalizer struct{}

// Engine returns the engine identifier.
func (p *PostgresNormalizer) Engine() string { return "postgres" }

// pgExplainRoot is the root of PostgreSQL EXPLAIN JSON output. PostgreSQL
// wraps it in a single-element array.
type pgExplainRoot struct {
	Plan          pgExplainNode `json:"Plan"`
	PlanningTime  float64       `json:"Planning Time"`
	ExecutionTime float64       `json:"Execution Time"` // EXPLAIN ANALYZE only
}

// pgExplainNode is one node in the PostgreSQL plan tree.
type pgExplainNode struct {
	NodeType     string          `json:"Node Type"`
	RelationName string          `json:"Relation Name"`
	IndexName    string          `json:"Index Name"`
	JoinType     string          `json:"Join Type"`
	TotalCost    float64         `json:"Total Cost"`
	PlanRows     int64           `json:"Plan Rows"`
	ActualRows   int64           `json:"Actual Rows"` // EXPLAIN ANALYZE only
	SortKey      []string        `json:"Sort Key"`
	SortMethod   string          `json:"Sort Method"` // EXPLAIN ANALYZE only
	Plans        []pgExplainNode `json:"Plans"`
}

// pgNodeTypes maps PostgreSQL operator names to canonical node types.
var pgNodeTypes = map[string]NodeType{
	"Seq Scan":          FullScan,
	"Index Scan":        IndexScan,
	"Index Only Scan":   IndexOnlyScan,
	"Bitmap Heap Scan":  BitmapScan,
	"Bitmap Index Scan": BitmapScan,
	"Sort":              Sort,
	"Incremental Sort":  Sort,
	"Nested Loop":       NestedLoop,
	"Hash Join":         HashJoin,
	"Merge Join":        MergeJoin,
	"Aggregate":         Aggregate,
	"GroupAggregate":    Aggregate,
	"HashAggregate":     Aggregate,
}

// Normalize decodes EXPLAIN (FORMAT JSON) output into a canonical Node tree.
func (p *PostgresNormalizer) Normalize(raw []byte) (*Node, error) {
	text, err := decodePayload(p.Engine(), raw)
	if err != nil {
		return nil, err
	}
	text = stripFraming(text)

	var roots []pgExplainRoot
	if err := json.Unmarshal([]byte(text), &roots); err != nil {
		// Some capture tooling stores the bare object instead of the array.
		var single pgExplainRoot
		if err2 := json.Unmarshal([]byte(text), &single); err2 != nil {
			return nil, &DecodeError{Engine: p.Engine(), Message: fmt.Sprintf("invalid explain JSON: %v", err)}
		}
		roots = []pgExplainRoot{single}
	}
	if len(roots) == 0 {
		return nil, &DecodeError{Engine: p.Engine(), Message: "empty explain output"}
	}

	root := convertPostgresNode(&roots[0].Plan)
	root.ExecutionTimeMs = roots[0].ExecutionTime
	return root, nil
}

// convertPostgresNode maps one PostgreSQL plan node and its children.
func convertPostgresNode(pg *pgExplainNode) *Node {
	nt, ok := pgNodeTypes[pg.NodeType]
	if !ok {
		nt = Unknown
	}

	n := &Node{
		NodeType:   nt,
		Relation:   pg.RelationName,
		IndexName:  pg.IndexName,
		JoinType:   pg.JoinType,
		TotalCost:  pg.TotalCost,
		PlanRows:   pg.PlanRows,
		ActualRows: pg.ActualRows,
		SortKey:    pg.SortKey,
		SortMethod: normalizeSortMethod(pg.SortMethod),
	}
	for i := range pg.Plans {
		n.Children = append(n.Children, convertPostgresNode(&pg.Plans[i]))
	}
	return n
}

// normalizeSortMethod canonicalizes the EXPLAIN ANALYZE sort method label.
// A disk spill is what the rules care about; other methods pass through.
func normalizeSortMethod(method string) string {
	lower := strings.ToLower(strings.TrimSpace(method))
	if strings.HasPrefix(lower, "external") {
		return SortMethodExternalMerge
	}
	return strings.TrimSpace(method)
}
