package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hazyhaar/sqlitemcp/internal/db"
)

const insertEntry = `
	INSERT INTO audit_log (entry_id, trace_id, timestamp, action, kind, transport,
		user_id, parameters, error_message, duration_ms, status)
	VALUES (:entry_id, :trace_id, :timestamp, :action, :kind, :transport,
		:user_id, :parameters, :error_message, :duration_ms, :status)`

// SQLiteLogger writes audit entries to the audit_log table asynchronously.
// LogAsync after Close drops the entry.
type SQLiteLogger struct {
	db   *sqlx.DB
	ch   chan *Entry
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteLogger starts the batch writer for sqlDB.
func NewSQLiteLogger(sqlDB *sqlx.DB) *SQLiteLogger {
	l := &SQLiteLogger{
		db:   sqlDB,
		ch:   make(chan *Entry, 256),
		done: make(chan struct{}),
	}
	go l.flushLoop()
	return l
}

func (l *SQLiteLogger) Log(ctx context.Context, entry *Entry) error {
	fillDefaults(entry)
	_, err := l.db.NamedExecContext(ctx, insertEntry, entry)
	return err
}

func (l *SQLiteLogger) LogAsync(entry *Entry) {
	fillDefaults(entry)
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		slog.Warn("audit logger closed, dropping entry", "action", entry.Action)
		return
	}
	select {
	case l.ch <- entry:
	default:
		slog.Warn("audit buffer full, dropping entry", "action", entry.Action)
	}
}

func (l *SQLiteLogger) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	l.mu.Unlock()
	<-l.done
	return nil
}

func fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = db.NewID("aud")
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if e.Kind == "" {
		e.Kind = KindTool
	}
	if e.Status == "" {
		if e.Error != "" {
			e.Status = "error"
		} else {
			e.Status = "success"
		}
	}
	if e.Transport == "" {
		e.Transport = "stdio"
	}
}

func (l *SQLiteLogger) flushLoop() {
	defer close(l.done)
	batch := make([]*Entry, 0, 32)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-l.ch:
			if !ok {
				l.flushBatch(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= 32 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *SQLiteLogger) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}
	tx, err := l.db.Beginx()
	if err != nil {
		slog.Error("audit: begin tx", "error", err)
		return
	}
	for _, e := range batch {
		if _, err := tx.NamedExec(insertEntry, e); err != nil {
			slog.Error("audit write failed", "error", err, "action", e.Action)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("audit: commit", "error", err)
	}
}
