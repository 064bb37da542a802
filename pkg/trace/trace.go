// Package trace records every SQL statement run against the served database
// with its duration and error, logging it through slog and persisting it
// asynchronously to the sql_traces table of the telemetry database.
//
// Usage:
//
//	store := trace.NewStore(telemetryDB, 100*time.Millisecond)
//	defer store.Close()
//	exec := sqlexec.New(db, sqlexec.WithTracer(store))
package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hazyhaar/sqlitemcp/pkg/reqctx"
)

// Entry is a single SQL trace record.
type Entry struct {
	ID         int64  `db:"id"`
	TraceID    string `db:"trace_id"`
	Op         string `db:"op"` // "Exec" or "Query"
	Query      string `db:"query"`
	DurationUs int64  `db:"duration_us"`
	Error      string `db:"error"`
	Timestamp  int64  `db:"timestamp"` // unix microseconds
}

// Duration returns the recorded duration.
func (e Entry) Duration() time.Duration {
	return time.Duration(e.DurationUs) * time.Microsecond
}

// Store persists SQL trace entries asynchronously. A nil *Store records
// nothing but still logs. Entries recorded after Close are dropped.
type Store struct {
	db   *sqlx.DB
	slow time.Duration
	ch   chan *Entry
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewStore starts the flush loop. Statements slower than slow are logged at
// warn level.
func NewStore(db *sqlx.DB, slow time.Duration) *Store {
	if slow <= 0 {
		slow = 100 * time.Millisecond
	}
	s := &Store{
		db:   db,
		slow: slow,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Record logs a SQL operation with timing and optional error.
func (s *Store) Record(ctx context.Context, op, query string, d time.Duration, err error) {
	traceID := reqctx.GetTraceID(ctx)

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	} else if d > s.slowThreshold() {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("component", "sql"),
		slog.String("op", op),
		slog.String("query", query),
		slog.Duration("duration", d),
	}
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	slog.LogAttrs(ctx, level, "SQL", attrs...)

	if s == nil {
		return
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.recordAsync(&Entry{
		TraceID:    traceID,
		Op:         op,
		Query:      query,
		DurationUs: d.Microseconds(),
		Error:      errMsg,
		Timestamp:  time.Now().UnixMicro(),
	})
}

func (s *Store) slowThreshold() time.Duration {
	if s == nil {
		return 100 * time.Millisecond
	}
	return s.slow
}

func (s *Store) recordAsync(e *Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		// buffer full, drop
	}
}

// Close flushes pending entries and stops the flush loop.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)
	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}
	tx, err := s.db.Beginx()
	if err != nil {
		slog.Error("trace store: begin tx", "error", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO sql_traces (trace_id, op, query, duration_us, error, timestamp) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("trace store: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.TraceID, e.Op, e.Query, e.DurationUs, e.Error, e.Timestamp); err != nil {
			slog.Error("trace store: insert", "error", err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("trace store: commit", "error", err)
	}
}

// SlowQueries returns the slowest recorded statements taking at least min.
func SlowQueries(ctx context.Context, db sqlx.QueryerContext, min time.Duration, limit int) ([]Entry, error) {
	var out []Entry
	err := sqlx.SelectContext(ctx, db, &out, `
		SELECT id, trace_id, op, query, duration_us, error, timestamp
		FROM sql_traces
		WHERE duration_us >= ?
		ORDER BY duration_us DESC
		LIMIT ?`, min.Microseconds(), limit)
	return out, err
}

// ByTrace returns the statements recorded under traceID in execution order.
func ByTrace(ctx context.Context, db sqlx.QueryerContext, traceID string) ([]Entry, error) {
	var out []Entry
	err := sqlx.SelectContext(ctx, db, &out, `
		SELECT id, trace_id, op, query, duration_us, error, timestamp
		FROM sql_traces
		WHERE trace_id = ?
		ORDER BY id`, traceID)
	return out, err
}
