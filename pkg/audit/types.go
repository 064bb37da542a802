// Package audit records one entry per MCP request (tool call, resource read,
// prompt fetch) in the audit_log table of the telemetry database.
package audit

import "context"

// Kinds of audited request.
const (
	KindTool     = "tool"
	KindResource = "resource"
	KindPrompt   = "prompt"
)

// Entry records a single action for the audit trail.
type Entry struct {
	EntryID    string `json:"entry_id" db:"entry_id"`
	TraceID    string `json:"trace_id" db:"trace_id"`
	Timestamp  int64  `json:"timestamp" db:"timestamp"`
	Action     string `json:"action" db:"action"`
	Kind       string `json:"kind" db:"kind"`
	Transport  string `json:"transport" db:"transport"` // "stdio" or "http"
	UserID     string `json:"user_id" db:"user_id"`
	Parameters string `json:"parameters" db:"parameters"`
	Error      string `json:"error_message" db:"error_message"`
	DurationMs int64  `json:"duration_ms" db:"duration_ms"`
	Status     string `json:"status" db:"status"` // "success" or "error"
}

// Logger writes audit entries to storage.
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	LogAsync(entry *Entry)
	Close() error
}
