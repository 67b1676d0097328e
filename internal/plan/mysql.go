package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MySQLNormalizer maps EXPLAIN FORMAT=JSON output to the canonical tree.
type MySQLNormalizer struct{}

// Engine returns the engine identifier.
func (m *MySQLNormalizer) Engine() string { return "mysql" }

// myExplainRoot is the root of MySQL EXPLAIN FORMAT=JSON output.
type myExplainRoot struct {
	QueryBlock myQueryBlock `json:"query_block"`
}

// myQueryBlock is the query_block node. Exactly one of Table, NestedLoop,
// Grouping or Ordering carries the access structure.
type myQueryBlock struct {
	SelectID   int            `json:"select_id"`
	CostInfo   myCostInfo     `json:"cost_info"`
	Table      *myTableAccess `json:"table"`
	NestedLoop []myJoinEntry  `json:"nested_loop"`
	Grouping   *myWrappedOp   `json:"grouping_operation"`
	Ordering   *myWrappedOp   `json:"ordering_operation"`
}

// myJoinEntry is one element of a nested_loop array.
type myJoinEntry struct {
	Table *myTableAccess `json:"table"`
}

// myWrappedOp is a grouping_operation or ordering_operation wrapper.
type myWrappedOp struct {
	UsingFilesort       bool           `json:"using_filesort"`
	UsingTemporaryTable bool           `json:"using_temporary_table"`
	Table               *myTableAccess `json:"table"`
	NestedLoop          []myJoinEntry  `json:"nested_loop"`
	Grouping            *myWrappedOp   `json:"grouping_operation"`
}

// myTableAccess is a single table access.
type myTableAccess struct {
	TableName           string     `json:"table_name"`
	AccessType          string     `json:"access_type"`
	Key                 string     `json:"key"`
	RowsExaminedPerScan int64      `json:"rows_examined_per_scan"`
	RowsProducedPerJoin int64      `json:"rows_produced_per_join"`
	CostInfo            myCostInfo `json:"cost_info"`
}

// myCostInfo carries cost estimates. MySQL encodes them as strings.
type myCostInfo struct {
	QueryCost  string `json:"query_cost"`
	PrefixCost string `json:"prefix_cost"`
	ReadCost   string `json:"read_cost"`
}

// myAccessTypes maps MySQL access_type values to canonical node types.
// "index" is a full index sweep and still reads through the index.
var myAccessTypes = map[string]NodeType{
	"ALL":      FullScan,
	"index":    IndexScan,
	"range":    RangeScan,
	"ref":      IndexScan,
	"eq_ref":   IndexScan,
	"const":    IndexScan,
	"system":   IndexScan,
	"fulltext": IndexScan,
}

// Normalize decodes EXPLAIN FORMAT=JSON output into a canonical Node tree.
// MySQL payloads dumped from the shell often carry an "EXPLAIN" banner and
// escaped newlines; stripFraming removes both.
func (m *MySQLNormalizer) Normalize(raw []byte) (*Node, error) {
	text, err := decodePayload(m.Engine(), raw)
	if err != nil {
		return nil, err
	}
	text = stripFraming(text)

	var root myExplainRoot
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, &DecodeError{Engine: m.Engine(), Message: fmt.Sprintf("invalid explain JSON: %v", err)}
	}

	node := convertMySQLBlock(&root.QueryBlock)
	if node == nil {
		return nil, &DecodeError{Engine: m.Engine(), Message: "query_block has no table access"}
	}
	return node, nil
}

// convertMySQLBlock maps a query_block to a canonical node. Ordering and
// grouping wrappers become Sort and Aggregate nodes above the access nodes.
func convertMySQLBlock(qb *myQueryBlock) *Node {
	queryCost := parseMySQLCost(qb.CostInfo.QueryCost)

	var inner *Node
	switch {
	case qb.Ordering != nil:
		inner = convertMySQLWrapped(qb.Ordering, Sort)
	case qb.Grouping != nil:
		inner = convertMySQLWrapped(qb.Grouping, Aggregate)
	case len(qb.NestedLoop) > 0:
		inner = convertMySQLJoin(qb.NestedLoop)
	case qb.Table != nil:
		inner = convertMySQLTable(qb.Table)
	}
	if inner == nil {
		return nil
	}
	if inner.TotalCost == 0 {
		inner.TotalCost = queryCost
	}
	return inner
}

// convertMySQLWrapped maps an ordering or grouping wrapper.
func convertMySQLWrapped(op *myWrappedOp, nt NodeType) *Node {
	n := &Node{NodeType: nt}
	if nt == Sort && op.UsingFilesort {
		n.SortMethod = "Filesort"
	}

	var inner *Node
	switch {
	case op.Grouping != nil:
		inner = convertMySQLWrapped(op.Grouping, Aggregate)
	case len(op.NestedLoop) > 0:
		inner = convertMySQLJoin(op.NestedLoop)
	case op.Table != nil:
		inner = convertMySQLTable(op.Table)
	}
	if inner != nil {
		n.Children = append(n.Children, inner)
		n.TotalCost = inner.TotalCost
		n.PlanRows = inner.PlanRows
	}
	return n
}

// convertMySQLJoin maps a nested_loop array to a NestedLoop node with the
// table accesses as children. The join cost is the last prefix_cost.
func convertMySQLJoin(entries []myJoinEntry) *Node {
	join := &Node{NodeType: NestedLoop, JoinType: "nested loop"}
	for _, e := range entries {
		if e.Table == nil {
			continue
		}
		child := convertMySQLTable(e.Table)
		join.Children = append(join.Children, child)
		join.PlanRows = child.PlanRows
		if prefix := parseMySQLCost(e.Table.CostInfo.PrefixCost); prefix > join.TotalCost {
			join.TotalCost = prefix
		}
	}
	return join
}

// convertMySQLTable maps a single table access to a leaf node.
func convertMySQLTable(t *myTableAccess) *Node {
	nt, ok := myAccessTypes[t.AccessType]
	if !ok {
		nt = Unknown
	}
	return &Node{
		NodeType:  nt,
		Relation:  t.TableName,
		IndexName: t.Key,
		TotalCost: parseMySQLCost(t.CostInfo.PrefixCost),
		PlanRows:  t.RowsExaminedPerScan,
	}
}

// parseMySQLCost parses a string-encoded cost, returning 0 when absent.
func parseMySQLCost(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
