package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hazyhaar/pkg/kit"

	"github.com/hazyhaar/sqlitemcp/pkg/reqctx"
)

// Middleware wraps an Endpoint: measures duration, captures params and
// error, and logs asynchronously via the Logger. A nil logger disables it.
func Middleware(logger Logger, action, kind string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		if logger == nil {
			return next
		}
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()

			resp, err := next(ctx, request)

			entry := &Entry{
				TraceID:    reqctx.GetTraceID(ctx),
				Action:     action,
				Kind:       kind,
				Transport:  reqctx.GetTransport(ctx),
				UserID:     reqctx.GetUserID(ctx),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if request != nil {
				if params, e := json.Marshal(request); e == nil {
					entry.Parameters = string(params)
				}
			}
			if err != nil {
				entry.Error = err.Error()
				entry.Status = "error"
			} else {
				entry.Status = "success"
			}

			logger.LogAsync(entry)
			return resp, err
		}
	}
}
