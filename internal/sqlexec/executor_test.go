package sqlexec

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sqlitemcp/internal/db"
)

func newTestExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	d, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return New(d.DB, opts...)
}

func TestExecute_roundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	res, err := e.Execute(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	assert.False(t, res.HasRows())
	assert.Equal(t, int64(0), res.AffectedRows)

	res, err = e.Execute(ctx, "INSERT INTO test (name) VALUES ('widget')")
	require.NoError(t, err)
	assert.False(t, res.HasRows())
	assert.Equal(t, int64(1), res.AffectedRows)
	assert.Equal(t, "[{'affected_rows': 1}]", res.String())

	res, err = e.Execute(ctx, "SELECT * FROM test")
	require.NoError(t, err)
	require.True(t, res.HasRows())
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, []any{int64(1), "widget"}, res.Rows[0].Values)
	assert.Equal(t, "[{'id': 1, 'name': 'widget'}]", res.String())
}

func TestExecute_positionalParams(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	_, err := e.Execute(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO test (name) VALUES (?), (?)", "a", "b")
	require.NoError(t, err)

	res, err := e.Execute(ctx, "SELECT id FROM test WHERE name = ?", "b")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []any{int64(2)}, res.Rows[0].Values)
}

func TestExecute_affectedRowsCountsOnlyThisStatement(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	_, err := e.Execute(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO t VALUES (1), (2), (3)")
	require.NoError(t, err)

	res, err := e.Execute(ctx, "UPDATE t SET v = v + 10 WHERE v > 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.AffectedRows)

	res, err = e.Execute(ctx, "DELETE FROM t WHERE v = 999")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.AffectedRows)
}

func TestExecute_affectedRowsIgnoresTriggers(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	for _, stmt := range []string{
		"CREATE TABLE t (v INTEGER)",
		"CREATE TABLE log (v INTEGER)",
		`CREATE TRIGGER t_log AFTER INSERT ON t BEGIN
			INSERT INTO log VALUES (NEW.v);
			INSERT INTO log VALUES (NEW.v * 10);
		END`,
	} {
		_, err := e.Execute(ctx, stmt)
		require.NoError(t, err)
	}

	res, err := e.Execute(ctx, "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	assert.Equal(t, "[{'affected_rows': 1}]", res.String())

	// changes() still holds the INSERT count; a DDL statement reports zero.
	res, err = e.Execute(ctx, "CREATE TABLE other (v INTEGER)")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.AffectedRows)

	res, err = e.Execute(ctx, "SELECT COUNT(*) AS n FROM log")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2)}, res.Rows[0].Values)
}

func TestExecute_emptyResultSet(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	_, err := e.Execute(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	res, err := e.Execute(ctx, "SELECT v FROM t")
	require.NoError(t, err)
	assert.True(t, res.HasRows())
	assert.Empty(t, res.Rows)
	assert.Equal(t, "[]", res.String())
}

func TestExecute_duplicateColumnNames(t *testing.T) {
	e := newTestExecutor(t)

	res, err := e.Execute(context.Background(), "SELECT 1 AS a, 2 AS b, 3 AS a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []any{int64(3), int64(2)}, res.Rows[0].Values)
}

func TestExecute_queryError(t *testing.T) {
	ctx := context.Background()
	e := newTestExecutor(t)

	_, err := e.Execute(ctx, "SELECT * FROM non_existent_table")
	require.Error(t, err)
	var qErr *QueryError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, "SELECT * FROM non_existent_table", qErr.Statement)
	assert.Contains(t, err.Error(), "no such table")

	_, err = e.Execute(ctx, "CREATE TABLE u (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO u VALUES (1)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "INSERT INTO u VALUES (1)")
	require.True(t, errors.As(err, &qErr))
	assert.Contains(t, err.Error(), "UNIQUE")

	// The connection stays usable after a failure.
	res, err := e.Execute(ctx, "SELECT COUNT(*) AS n FROM u")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, res.Rows[0].Values)
}

func TestExecute_fileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	d, err := db.Open(path)
	require.NoError(t, err)
	_, err = New(d.DB).Execute(ctx, "CREATE TABLE t (v TEXT)")
	require.NoError(t, err)
	_, err = New(d.DB).Execute(ctx, "INSERT INTO t VALUES ('kept')")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = db.Open(path)
	require.NoError(t, err)
	defer d.Close()
	res, err := New(d.DB).Execute(ctx, "SELECT v FROM t")
	require.NoError(t, err)
	assert.Equal(t, "[{'v': 'kept'}]", res.String())
}

type recordingTracer struct {
	mu      sync.Mutex
	ops     []string
	queries []string
	errs    []error
}

func (r *recordingTracer) Record(_ context.Context, op, query string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.queries = append(r.queries, query)
	r.errs = append(r.errs, err)
}

func TestExecute_tracer(t *testing.T) {
	ctx := context.Background()
	tr := &recordingTracer{}
	e := newTestExecutor(t, WithTracer(tr))

	_, err := e.Execute(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "SELECT v FROM t")
	require.NoError(t, err)
	_, err = e.Execute(ctx, "SELECT nope FROM t")
	require.Error(t, err)

	assert.Equal(t, []string{"Exec", "Query", "Query"}, tr.ops)
	assert.Equal(t, "SELECT v FROM t", tr.queries[1])
	assert.NoError(t, tr.errs[0])
	assert.Error(t, tr.errs[2])
}
