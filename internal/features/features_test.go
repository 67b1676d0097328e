package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSimpleSelect(t *testing.T) {
	f, err := Extract("SELECT * FROM orders WHERE customer_id = 42")
	require.NoError(t, err)

	assert.Equal(t, QuerySelect, f.QueryType)
	assert.Equal(t, "orders", f.TableName)
	assert.Equal(t, []string{"customer_id"}, f.WhereColumns)
	assert.True(t, f.HasWhere)
	assert.False(t, f.HasOrderBy)
	assert.False(t, f.HasGroupBy)
	assert.False(t, f.HasJoins)
}

func TestExtractQueryTypes(t *testing.T) {
	tests := []struct {
		query string
		want  QueryType
	}{
		{"SELECT 1", QuerySelect},
		{"WITH c AS (SELECT 1) SELECT * FROM c", QuerySelect},
		{"INSERT INTO orders (id) VALUES (1)", QueryInsert},
		{"UPDATE orders SET status = 'paid' WHERE id = 1", QueryUpdate},
		{"DELETE FROM orders WHERE id = 1", QueryDelete},
		{"VACUUM", QueryUnknown},
		{"CREATE TABLE t (id int)", QueryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, err := Extract(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.QueryType)
		})
	}
}

func TestExtractParseErrors(t *testing.T) {
	for _, query := range []string{"", "   ", "\n\t", "hello world", "42 is not sql"} {
		_, err := Extract(query)
		require.Error(t, err, "query %q", query)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr)
	}
}

func TestExtractWhereColumnsOrderAndDedup(t *testing.T) {
	f, err := Extract("SELECT * FROM orders WHERE status = 'open' AND customer_id = 42 OR status = 'held'")
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "customer_id"}, f.WhereColumns)
}

func TestExtractWhereColumnsQualified(t *testing.T) {
	f, err := Extract("SELECT * FROM orders o WHERE o.customer_id = 42 AND o.total > 100")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer_id", "total"}, f.WhereColumns)
}

func TestExtractWhereColumnsFunctionWrapped(t *testing.T) {
	f, err := Extract("SELECT * FROM users WHERE UPPER(email) = 'A@B.COM'")
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, f.WhereColumns)
}

func TestExtractIgnoresSubqueryWhereOutsideFilterTree(t *testing.T) {
	// The WHERE inside the derived table belongs to the subquery, not the
	// top-level statement.
	q := "SELECT * FROM (SELECT id FROM archive WHERE archived_at < '2020-01-01') a"
	f, err := Extract(q)
	require.NoError(t, err)
	assert.False(t, f.HasWhere)
	assert.Empty(t, f.WhereColumns)
}

func TestExtractKeepsFilterTreeSubquery(t *testing.T) {
	// A subquery inside the top-level WHERE is part of the filter tree.
	q := "SELECT * FROM orders WHERE customer_id IN (SELECT id FROM customers WHERE region = 'EU')"
	f, err := Extract(q)
	require.NoError(t, err)
	assert.True(t, f.HasWhere)
	assert.Contains(t, f.WhereColumns, "customer_id")
	assert.Contains(t, f.WhereColumns, "region")
}

func TestExtractClauseTerminators(t *testing.T) {
	f, err := Extract("SELECT * FROM orders WHERE total > 10 ORDER BY created_at LIMIT 5")
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, f.WhereColumns)
	assert.True(t, f.HasOrderBy)
	assert.False(t, f.HasGroupBy)
}

func TestExtractClauseFlags(t *testing.T) {
	q := "SELECT region, count(*) FROM orders o JOIN customers c ON o.customer_id = c.id GROUP BY region ORDER BY region"
	f, err := Extract(q)
	require.NoError(t, err)
	assert.True(t, f.HasJoins)
	assert.True(t, f.HasGroupBy)
	assert.True(t, f.HasOrderBy)
	assert.False(t, f.HasWhere)
}

func TestExtractTableNames(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM orders", "orders"},
		{"SELECT * FROM public.orders", "orders"},
		{"INSERT INTO orders (id) VALUES (1)", "orders"},
		{"UPDATE orders SET x = 1", "orders"},
		{"DELETE FROM orders", "orders"},
		{"SELECT 1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, err := Extract(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.TableName)
		})
	}
}

func TestExtractIgnoresQuotedKeywords(t *testing.T) {
	f, err := Extract("SELECT * FROM notes WHERE body = 'where is my order'")
	require.NoError(t, err)
	assert.Equal(t, []string{"body"}, f.WhereColumns)
}
