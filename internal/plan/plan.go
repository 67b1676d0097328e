// Package plan normalizes engine-specific EXPLAIN output into one canonical
// plan shape. Each supported engine registers a Normalizer; shared logic never
// branches on the engine.
package plan

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType is the canonical plan operator name shared across engines.
type NodeType string

const (
	// FullScan reads an entire table without a selective index lookup.
	FullScan NodeType = "FullScan"
	// IndexScan reads rows through an index lookup.
	IndexScan NodeType = "IndexScan"
	// IndexOnlyScan satisfies the query from the index alone.
	IndexOnlyScan NodeType = "IndexOnlyScan"
	// BitmapScan combines bitmap index and heap access.
	BitmapScan NodeType = "BitmapScan"
	// RangeScan reads a contiguous index range.
	RangeScan NodeType = "RangeScan"
	// Sort orders intermediate results.
	Sort NodeType = "Sort"
	// NestedLoop is a nested-loop join.
	NestedLoop NodeType = "NestedLoop"
	// HashJoin is a hash join.
	HashJoin NodeType = "HashJoin"
	// MergeJoin is a merge join.
	MergeJoin NodeType = "MergeJoin"
	// Aggregate groups or aggregates rows.
	Aggregate NodeType = "Aggregate"
	// Unknown is any operator without a canonical mapping.
	Unknown NodeType = "Unknown"
)

// SortMethodExternalMerge marks a sort that spilled to disk.
const SortMethodExternalMerge = "ExternalMerge"

// Node is one operator in the canonical plan tree. Fields an engine cannot
// provide stay at their zero value.
type Node struct {
	NodeType   NodeType `json:"node_type"`
	Relation   string   `json:"relation_name,omitempty"`
	IndexName  string   `json:"index_name,omitempty"`
	TotalCost  float64  `json:"total_cost"`
	PlanRows   int64    `json:"plan_rows"`
	ActualRows int64    `json:"actual_rows"`
	SortKey    []string `json:"sort_key,omitempty"`
	SortMethod string   `json:"sort_method,omitempty"`
	JoinType   string   `json:"join_type,omitempty"`

	// ExecutionTimeMs is set only when the payload came from an
	// instrumented run (EXPLAIN ANALYZE).
	ExecutionTimeMs float64 `json:"execution_time_ms,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Walk visits n and every descendant in depth-first order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		Walk(child, visit)
	}
}

// DecodeError reports a plan payload that could not be decoded.
type DecodeError struct {
	Engine  string
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("plan decode error (%s): %s", e.Engine, e.Message)
}

// Normalizer converts one engine's raw explain payload into a canonical Node.
type Normalizer interface {
	// Engine returns the engine identifier this normalizer handles.
	Engine() string
	// Normalize decodes and maps the raw payload. Missing optional fields
	// are left unset rather than failing.
	Normalize(raw []byte) (*Node, error)
}

var normalizers = make(map[string]Normalizer)

// Register makes a Normalizer available under its engine identifier.
func Register(n Normalizer) {
	normalizers[strings.ToLower(n.Engine())] = n
}

// Engines returns the registered engine identifiers (for diagnostics).
func Engines() []string {
	keys := make([]string, 0, len(normalizers))
	for k := range normalizers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize converts raw explain output from the named engine into a Node.
func Normalize(engine string, raw []byte) (*Node, error) {
	n, ok := normalizers[strings.ToLower(engine)]
	if !ok {
		return nil, &DecodeError{Engine: engine, Message: fmt.Sprintf("no normalizer registered (available: %v)", Engines())}
	}
	return n.Normalize(raw)
}

func init() {
	Register(&PostgresNormalizer{})
	Register(&MySQLNormalizer{})
	Register(&SQLiteNormalizer{})
}
