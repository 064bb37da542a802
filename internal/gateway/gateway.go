// Package gateway maps tool, resource and prompt requests onto the served
// SQLite database and the insight memo.
//
// Statement checks are lexical: the trimmed statement must (or must not)
// start with a keyword, compared case-insensitively. Comments before the
// keyword, several statements in one string, or a data-modifying statement
// hidden behind an allowed prefix are not detected.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/sqlitemcp/internal/insight"
	"github.com/hazyhaar/sqlitemcp/internal/sqlexec"
)

const (
	listTablesQuery    = "SELECT name FROM sqlite_master WHERE type='table'"
	describeTableQuery = "SELECT * FROM pragma_table_info(?)"
)

// Notifier tells subscribed clients that the resource at uri changed.
type Notifier func(ctx context.Context, uri string) error

// Content is one element of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textContent(s string) []Content {
	return []Content{{Type: "text", Text: s}}
}

// Gateway owns the per-server state: the query executor, the insight store
// and the change notifier. It is built once at startup.
type Gateway struct {
	db       sqlexec.Querier
	insights *insight.Store
	notify   Notifier
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithNotifier sets the callback invoked after the memo changes.
func WithNotifier(n Notifier) Option {
	return func(g *Gateway) {
		g.notify = n
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(g *Gateway) {
		if lg != nil {
			g.logger = lg
		}
	}
}

// New returns a Gateway running statements through q. A nil store gets a
// fresh one.
func New(q sqlexec.Querier, store *insight.Store, opts ...Option) *Gateway {
	if store == nil {
		store = insight.NewStore()
	}
	g := &Gateway{
		db:       q,
		insights: store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetNotifier replaces the change notifier. The protocol layer is usually
// built after the gateway, so it installs itself here.
func (g *Gateway) SetNotifier(n Notifier) {
	g.notify = n
}

// Insights returns the gateway's insight store.
func (g *Gateway) Insights() *insight.Store {
	return g.insights
}

// Tools lists the tool catalog.
func (g *Gateway) Tools() []ToolDefinition {
	return Definitions()
}

// Call runs the tool called name with args.
func (g *Gateway) Call(ctx context.Context, name string, args map[string]any) ([]Content, error) {
	tool, ok := ParseTool(name)
	if !ok {
		return nil, &DispatchError{Kind: UnknownTool, Msg: fmt.Sprintf("Unknown tool: %s", name)}
	}
	g.logger.DebugContext(ctx, "tool call", "component", "gateway", "tool", name)

	switch tool {
	case ReadQuery:
		query, err := requireString(args, argQuery, tool)
		if err != nil {
			return nil, err
		}
		if !hasKeywordPrefix(query, "SELECT") {
			return nil, &ValidationError{Msg: "Only SELECT queries are allowed for read_query"}
		}
		res, err := g.db.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		return textContent(res.String()), nil

	case WriteQuery:
		query, err := requireString(args, argQuery, tool)
		if err != nil {
			return nil, err
		}
		if hasKeywordPrefix(query, "SELECT") {
			return nil, &ValidationError{Msg: "SELECT queries are not allowed for write_query"}
		}
		res, err := g.db.Execute(ctx, query)
		if err != nil {
			return nil, err
		}
		return textContent(res.String()), nil

	case CreateTable:
		query, err := requireString(args, argQuery, tool)
		if err != nil {
			return nil, err
		}
		if !hasKeywordPrefix(query, "CREATE TABLE") {
			return nil, &ValidationError{Msg: "Only CREATE TABLE statements are allowed for create_table"}
		}
		if _, err := g.db.Execute(ctx, query); err != nil {
			return nil, err
		}
		return textContent("Table created successfully"), nil

	case ListTables:
		res, err := g.db.Execute(ctx, listTablesQuery)
		if err != nil {
			return nil, err
		}
		return textContent(res.String()), nil

	case DescribeTable:
		table, err := requireString(args, argTableName, tool)
		if err != nil {
			return nil, err
		}
		res, err := g.db.Execute(ctx, describeTableQuery, table)
		if err != nil {
			return nil, err
		}
		return textContent(res.String()), nil

	case AppendInsight:
		text, err := requireString(args, argInsight, tool)
		if err != nil {
			return nil, err
		}
		g.insights.Append(text)
		g.memoChanged(ctx)
		return textContent(fmt.Sprintf("Insight added to memo: %s", text)), nil
	}

	panic(fmt.Sprintf("gateway: unhandled tool %d", tool))
}

// memoChanged fires the change notification. Failures are logged only: the
// insight is already stored.
func (g *Gateway) memoChanged(ctx context.Context) {
	if g.notify == nil {
		return
	}
	if err := g.notify(ctx, MemoURI); err != nil {
		g.logger.WarnContext(ctx, "resource update notification failed",
			"component", "gateway", "uri", MemoURI, "error", err)
	}
}

// hasKeywordPrefix reports whether statement, trimmed and upper-cased,
// starts with keyword. keyword must be upper case.
func hasKeywordPrefix(statement, keyword string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(statement)), keyword)
}

// requireString returns args[key] as a string. Absent or null arguments are
// a ValidationError naming the tool.
func requireString(args map[string]any, key string, tool Tool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", &ValidationError{Msg: fmt.Sprintf("Missing %s argument for %s", key, tool)}
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}
