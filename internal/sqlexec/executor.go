// Package sqlexec runs arbitrary SQL statements against the served SQLite
// connection and materializes their results.
//
// The executor does not restrict statement types. Restricting what each tool
// may run is the dispatcher's job.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

//go:generate mockgen -destination=mock_sqlexec/mock_sqlexec.go . Querier

// Querier executes a single statement with positional parameters.
type Querier interface {
	Execute(ctx context.Context, statement string, params ...any) (*Result, error)
}

// Tracer receives one record per executed statement.
type Tracer interface {
	Record(ctx context.Context, op, query string, d time.Duration, err error)
}

// Executor is the Querier backed by a database/sql handle. The handle is
// expected to be capped at one open connection so that the change counters
// and in-memory databases stay bound to the same SQLite connection.
type Executor struct {
	db     *sql.DB
	tracer Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer reports every statement to t.
func WithTracer(t Tracer) Option {
	return func(e *Executor) {
		e.tracer = t
	}
}

// New returns an Executor running statements on db.
func New(db *sql.DB, opts ...Option) *Executor {
	e := &Executor{db: db}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs statement. Statements that produce a column list return every
// row, fully scanned. Anything else is committed immediately and reported as
// the number of rows it changed.
func (e *Executor) Execute(ctx context.Context, statement string, params ...any) (res *Result, err error) {
	start := time.Now()
	op := "Query"
	defer func() {
		if e.tracer != nil {
			e.tracer.Record(ctx, op, statement, time.Since(start), err)
		}
	}()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	before, err := totalChanges(ctx, conn)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, &QueryError{Statement: statement, Err: err}
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, &QueryError{Statement: statement, Err: err}
	}

	if len(columns) == 0 {
		op = "Exec"
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, &QueryError{Statement: statement, Err: err}
		}
		if err := rows.Close(); err != nil {
			return nil, &QueryError{Statement: statement, Err: err}
		}
		n, err := affectedRows(ctx, conn, before)
		if err != nil {
			return nil, err
		}
		return &Result{AffectedRows: n}, nil
	}

	defer rows.Close()
	result, err := scanRows(rows, columns)
	if err != nil {
		return nil, &QueryError{Statement: statement, Err: err}
	}
	return result, nil
}

func scanRows(rows *sql.Rows, columns []string) (*Result, error) {
	// A mapping keeps one value per column name; later duplicates win but
	// keep the position of the first occurrence.
	names := make([]string, 0, len(columns))
	slot := make([]int, len(columns))
	seen := make(map[string]int, len(columns))
	for i, col := range columns {
		if j, ok := seen[col]; ok {
			slot[i] = j
			continue
		}
		seen[col] = len(names)
		slot[i] = len(names)
		names = append(names, col)
	}

	result := &Result{Columns: names, Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := Row{Columns: names, Values: make([]any, len(names))}
		for i, v := range values {
			row.Values[slot[i]] = v
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// affectedRows returns the rows changed by the statement just run, excluding
// trigger and foreign key action changes. changes() keeps the count of the
// last INSERT, UPDATE or DELETE, so an unchanged total_changes() means the
// statement changed nothing.
func affectedRows(ctx context.Context, conn *sql.Conn, before int64) (int64, error) {
	after, err := totalChanges(ctx, conn)
	if err != nil {
		return 0, err
	}
	if after == before {
		return 0, nil
	}
	var n int64
	if err := conn.QueryRowContext(ctx, "SELECT changes()").Scan(&n); err != nil {
		return 0, fmt.Errorf("reading change counter: %w", err)
	}
	return n, nil
}

func totalChanges(ctx context.Context, conn *sql.Conn) (int64, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, "SELECT total_changes()").Scan(&n); err != nil {
		return 0, fmt.Errorf("reading change counter: %w", err)
	}
	return n, nil
}
