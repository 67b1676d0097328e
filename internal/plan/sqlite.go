package plan

import (
	"strings"
)

// SQLiteNormalizer maps EXPLAIN QUERY PLAN text output to the canonical tree.
// SQLite reports neither costs nor row estimates, so those stay zero.
type SQLiteNormalizer struct{}

// Engine returns the engine identifier.
func (s *SQLiteNormalizer) Engine() string { return "sqlite" }

// Normalize parses EXPLAIN QUERY PLAN detail lines, one access step per line.
// Examples:
//
//	SCAN orders
//	SEARCH orders USING INDEX idx_orders_customer (customer_id=?)
//	SEARCH users USING COVERING INDEX idx_users_email (email=?)
//	USE TEMP B-TREE FOR ORDER BY
func (s *SQLiteNormalizer) Normalize(raw []byte) (*Node, error) {
	text, err := decodePayload(s.Engine(), raw)
	if err != nil {
		return nil, err
	}
	text = stripFraming(text)

	var nodes []*Node
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n := parseSQLiteLine(line); n != nil {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return nil, &DecodeError{Engine: s.Engine(), Message: "no recognizable plan lines"}
	}

	// A temp b-tree sort dominates the access steps it orders.
	for i, n := range nodes {
		if n.NodeType == Sort {
			n.Children = append(nodes[:i:i], nodes[i+1:]...)
			return n, nil
		}
	}

	root := nodes[0]
	root.Children = append(root.Children, nodes[1:]...)
	return root, nil
}

// parseSQLiteLine maps one detail line to a canonical node.
func parseSQLiteLine(line string) *Node {
	upper := strings.ToUpper(line)

	switch {
	case strings.Contains(upper, "USE TEMP B-TREE"):
		return &Node{NodeType: Sort, SortMethod: "TempBTree"}

	case strings.Contains(upper, "USING COVERING INDEX"):
		return &Node{
			NodeType:  IndexOnlyScan,
			Relation:  sqliteRelation(line),
			IndexName: sqliteIndexName(line, "USING COVERING INDEX "),
		}

	case strings.Contains(upper, "USING INDEX"):
		return &Node{
			NodeType:  IndexScan,
			Relation:  sqliteRelation(line),
			IndexName: sqliteIndexName(line, "USING INDEX "),
		}

	case strings.Contains(upper, "USING INTEGER PRIMARY KEY"):
		return &Node{NodeType: IndexScan, Relation: sqliteRelation(line), IndexName: "PRIMARY KEY"}

	case strings.Contains(upper, "USING AUTOMATIC"):
		return &Node{NodeType: IndexScan, Relation: sqliteRelation(line), IndexName: "AUTOMATIC INDEX"}

	case strings.HasPrefix(upper, "SCAN "):
		return &Node{NodeType: FullScan, Relation: sqliteRelation(line)}

	case strings.HasPrefix(upper, "SEARCH "):
		return &Node{NodeType: IndexScan, Relation: sqliteRelation(line)}
	}

	return &Node{NodeType: Unknown}
}

// sqliteRelation extracts the table name after SCAN or SEARCH.
func sqliteRelation(line string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		upper := strings.ToUpper(f)
		if (upper == "SCAN" || upper == "SEARCH") && i+1 < len(fields) {
			next := fields[i+1]
			if strings.ToUpper(next) == "TABLE" && i+2 < len(fields) {
				return fields[i+2]
			}
			return next
		}
	}
	return ""
}

// sqliteIndexName extracts the index name following marker in line.
// The name ends at whitespace or an opening parenthesis.
func sqliteIndexName(line, marker string) string {
	idx := strings.Index(strings.ToUpper(line), marker)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	for i, r := range rest {
		if r == ' ' || r == '(' {
			return rest[:i]
		}
	}
	return rest
}
