package audit

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ActionStats aggregates audit entries for one action.
type ActionStats struct {
	Action        string  `db:"action"`
	Kind          string  `db:"kind"`
	Calls         int64   `db:"calls"`
	Errors        int64   `db:"errors"`
	AvgDurationMs float64 `db:"avg_duration_ms"`
	LastSeen      int64   `db:"last_seen"`
}

// Recent returns the latest audit entries, newest first.
func Recent(ctx context.Context, db sqlx.QueryerContext, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Entry
	err := sqlx.SelectContext(ctx, db, &out, `
		SELECT entry_id, trace_id, timestamp, action, kind, transport, user_id,
			parameters, error_message, duration_ms, status
		FROM audit_log
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, limit)
	return out, err
}

// ToolStats returns per-action call counts, error counts and mean latency,
// busiest first.
func ToolStats(ctx context.Context, db sqlx.QueryerContext) ([]ActionStats, error) {
	var out []ActionStats
	err := sqlx.SelectContext(ctx, db, &out, `
		SELECT action, kind,
			COUNT(*) AS calls,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) AS errors,
			AVG(duration_ms) AS avg_duration_ms,
			MAX(timestamp) AS last_seen
		FROM audit_log
		GROUP BY action, kind
		ORDER BY calls DESC, action`)
	return out, err
}
