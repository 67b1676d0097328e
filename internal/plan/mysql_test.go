package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const myFullScanJSON = `{
  "query_block": {
    "select_id": 1,
    "cost_info": {"query_cost": "15480.25"},
    "table": {
      "table_name": "orders",
      "access_type": "ALL",
      "rows_examined_per_scan": 150000,
      "rows_produced_per_join": 15000,
      "filtered": "10.00",
      "cost_info": {"prefix_cost": "15480.25"}
    }
  }
}`

const myJoinJSON = `{
  "query_block": {
    "select_id": 1,
    "cost_info": {"query_cost": "2301.50"},
    "nested_loop": [
      {"table": {"table_name": "customers", "access_type": "ALL",
        "rows_examined_per_scan": 1000, "cost_info": {"prefix_cost": "101.25"}}},
      {"table": {"table_name": "orders", "access_type": "ref", "key": "idx_orders_customer",
        "rows_examined_per_scan": 15, "cost_info": {"prefix_cost": "2301.50"}}}
    ]
  }
}`

const myOrderingJSON = `{
  "query_block": {
    "select_id": 1,
    "cost_info": {"query_cost": "980.00"},
    "ordering_operation": {
      "using_filesort": true,
      "table": {
        "table_name": "orders",
        "access_type": "range",
        "key": "idx_orders_created",
        "rows_examined_per_scan": 4200,
        "cost_info": {"prefix_cost": "980.00"}
      }
    }
  }
}`

func TestNormalizeMySQLFullScan(t *testing.T) {
	n, err := Normalize("mysql", []byte(myFullScanJSON))
	require.NoError(t, err)

	assert.Equal(t, FullScan, n.NodeType)
	assert.Equal(t, "orders", n.Relation)
	assert.Equal(t, 15480.25, n.TotalCost)
	assert.Equal(t, int64(150000), n.PlanRows)
}

func TestNormalizeMySQLJoin(t *testing.T) {
	n, err := Normalize("mysql", []byte(myJoinJSON))
	require.NoError(t, err)

	assert.Equal(t, NestedLoop, n.NodeType)
	assert.Equal(t, 2301.50, n.TotalCost)
	require.Len(t, n.Children, 2)
	assert.Equal(t, FullScan, n.Children[0].NodeType)
	assert.Equal(t, "customers", n.Children[0].Relation)
	assert.Equal(t, IndexScan, n.Children[1].NodeType)
	assert.Equal(t, "idx_orders_customer", n.Children[1].IndexName)
}

func TestNormalizeMySQLOrdering(t *testing.T) {
	n, err := Normalize("mysql", []byte(myOrderingJSON))
	require.NoError(t, err)

	assert.Equal(t, Sort, n.NodeType)
	assert.Equal(t, "Filesort", n.SortMethod)
	require.Len(t, n.Children, 1)
	assert.Equal(t, RangeScan, n.Children[0].NodeType)
	assert.Equal(t, "idx_orders_created", n.Children[0].IndexName)
}

func TestNormalizeMySQLShellFraming(t *testing.T) {
	// Payloads dumped via the mysql client carry an EXPLAIN banner and
	// escaped newlines.
	framed := `EXPLAIN {\n  "query_block": {\n    "table": {"table_name": "t", "access_type": "ALL"}\n  }\n}`
	n, err := Normalize("mysql", []byte(framed))
	require.NoError(t, err)
	assert.Equal(t, FullScan, n.NodeType)
	assert.Equal(t, "t", n.Relation)
}

func TestNormalizeMySQLNoAccess(t *testing.T) {
	_, err := Normalize("mysql", []byte(`{"query_block": {"select_id": 1}}`))
	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
}
