package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sqlitemcp/internal/db"
	"github.com/hazyhaar/sqlitemcp/internal/gateway"
	"github.com/hazyhaar/sqlitemcp/internal/insight"
	"github.com/hazyhaar/sqlitemcp/internal/sqlexec"
)

func newSQLiteGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return gateway.New(sqlexec.New(d.DB), insight.NewStore())
}

func call(t *testing.T, g *gateway.Gateway, tool string, args map[string]any) string {
	t.Helper()
	content, err := g.Call(context.Background(), tool, args)
	require.NoError(t, err, tool)
	require.Len(t, content, 1)
	return content[0].Text
}

func TestSQLite_session(t *testing.T) {
	g := newSQLiteGateway(t)

	assert.Equal(t, "[]", call(t, g, "list_tables", nil))
	assert.Equal(t, "Table created successfully",
		call(t, g, "create_table", map[string]any{"query": "CREATE TABLE sales (id INTEGER PRIMARY KEY, region TEXT NOT NULL, amount REAL)"}))
	assert.Equal(t, "[{'name': 'sales'}]", call(t, g, "list_tables", nil))

	assert.Equal(t, "[{'affected_rows': 1}]",
		call(t, g, "write_query", map[string]any{"query": "INSERT INTO sales (region, amount) VALUES ('north', 10.5)"}))
	assert.Equal(t, "[{'affected_rows': 2}]",
		call(t, g, "write_query", map[string]any{"query": "INSERT INTO sales (region, amount) VALUES ('south', 3), ('east', NULL)"}))

	assert.Equal(t, "[{'region': 'north', 'amount': 10.5}, {'region': 'south', 'amount': 3.0}, {'region': 'east', 'amount': None}]",
		call(t, g, "read_query", map[string]any{"query": "SELECT region, amount FROM sales ORDER BY id"}))

	desc := call(t, g, "describe_table", map[string]any{"table_name": "sales"})
	assert.Contains(t, desc, "'name': 'region'")
	assert.Contains(t, desc, "'type': 'TEXT'")
	assert.Contains(t, desc, "'notnull': 1")
	assert.Contains(t, desc, "'pk': 1")

	assert.Equal(t, "[]", call(t, g, "describe_table", map[string]any{"table_name": "missing"}))
}

func TestSQLite_engineErrorIsQueryError(t *testing.T) {
	g := newSQLiteGateway(t)

	_, err := g.Call(context.Background(), "read_query", map[string]any{"query": "SELECT * FROM nowhere"})
	var qErr *sqlexec.QueryError
	require.True(t, errors.As(err, &qErr))
	assert.Contains(t, err.Error(), "no such table")

	// Validation happens before the engine sees the statement.
	_, err = g.Call(context.Background(), "read_query", map[string]any{"query": "DROP TABLE nowhere"})
	var vErr *gateway.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestSQLite_memoFollowsInsights(t *testing.T) {
	g := newSQLiteGateway(t)

	call(t, g, "append_insight", map[string]any{"insight": "A"})
	call(t, g, "append_insight", map[string]any{"insight": "B"})

	memo, err := g.ReadResource(gateway.MemoURI)
	require.NoError(t, err)
	assert.Contains(t, memo, "revealed 2 key business insights")
	assert.Contains(t, memo, "- A\n- B")
}
