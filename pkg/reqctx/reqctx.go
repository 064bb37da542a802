// Package reqctx carries per-request metadata (trace ID, transport, caller)
// through context.Context so that audit and SQL trace records can be
// correlated.
package reqctx

import "context"

type ctxKey int

const (
	traceIDKey ctxKey = iota
	transportKey
	userIDKey
)

// WithTraceID returns a context carrying the trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// WithTransport returns a context carrying the transport name ("stdio", "http").
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey, transport)
}

// WithUserID returns a context carrying the authenticated caller.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func GetTraceID(ctx context.Context) string {
	return getString(ctx, traceIDKey)
}

func GetTransport(ctx context.Context) string {
	return getString(ctx, transportKey)
}

func GetUserID(ctx context.Context) string {
	return getString(ctx, userIDKey)
}

func getString(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
