// Package mcp exposes a gateway.Gateway as an MCP server: six tools, the
// insight memo resource and the demo prompt, over stdio or Streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/pkg/kit"

	"github.com/hazyhaar/sqlitemcp/internal/db"
	"github.com/hazyhaar/sqlitemcp/internal/gateway"
	"github.com/hazyhaar/sqlitemcp/pkg/audit"
	"github.com/hazyhaar/sqlitemcp/pkg/reqctx"
)

const (
	serverName = "sqlite"

	// methodResourceUpdated is sent to the client after the memo changes.
	methodResourceUpdated = "notifications/resources/updated"
)

// Version is reported to clients during initialization.
var Version = "0.1.0"

// Server binds a gateway to an MCP server.
type Server struct {
	mcp       *mcpsrv.MCPServer
	gw        *gateway.Gateway
	audit     audit.Logger
	transport string
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAudit records every request in the audit log.
func WithAudit(l audit.Logger) Option {
	return func(s *Server) {
		s.audit = l
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithTransport names the transport recorded for requests that do not carry
// one already ("stdio" by default).
func WithTransport(name string) Option {
	return func(s *Server) {
		s.transport = name
	}
}

// New registers the gateway's tools, resources and prompts and installs the
// resource update notifier on gw.
func New(gw *gateway.Gateway, opts ...Option) *Server {
	s := &Server{
		gw:        gw,
		transport: "stdio",
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	s.mcp = mcpsrv.NewMCPServer(
		serverName,
		Version,
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithResourceCapabilities(false, true),
		mcpsrv.WithPromptCapabilities(false),
		mcpsrv.WithRecovery(),
		mcpsrv.WithInstructions(gateway.Instructions()),
	)

	for _, def := range gw.Tools() {
		s.mcp.AddTool(toolSpec(def), s.toolHandler(def))
	}
	for _, res := range gw.Resources() {
		s.mcp.AddResource(resourceSpec(res), s.resourceHandler(res))
	}
	s.mcp.AddResourceTemplate(
		mcplib.NewResourceTemplate(gateway.MemoTemplate, "Memo",
			mcplib.WithTemplateDescription("Any memo:// URI"),
			mcplib.WithTemplateMIMEType("text/plain"),
		),
		mcpsrv.ResourceTemplateHandlerFunc(s.readHandler(gateway.MemoTemplate, "text/plain")),
	)
	for _, p := range gw.Prompts() {
		s.mcp.AddPrompt(promptSpec(p), s.promptHandler(p))
	}

	gw.SetNotifier(s.notifyResourceUpdated)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpsrv.MCPServer {
	return s.mcp
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, in, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// HTTPHandler returns the Streamable HTTP handler. The caller mounts it (at
// /mcp) and owns the http.Server.
func (s *Server) HTTPHandler(httpSrv *http.Server) http.Handler {
	return mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)
}

// withRequest tags ctx with the transport and a trace ID unless the HTTP
// layer already did.
func (s *Server) withRequest(ctx context.Context) context.Context {
	if reqctx.GetTransport(ctx) == "" {
		ctx = reqctx.WithTransport(ctx, s.transport)
	}
	if reqctx.GetTraceID(ctx) == "" {
		ctx = reqctx.WithTraceID(ctx, db.NewID("trc"))
	}
	return ctx
}

func (s *Server) notifyResourceUpdated(ctx context.Context, uri string) error {
	return s.mcp.SendNotificationToClient(ctx, methodResourceUpdated, map[string]any{"uri": uri})
}

// --- tools ---

func toolSpec(def gateway.ToolDefinition) mcplib.Tool {
	schema, _ := json.Marshal(def.InputSchema())
	tool := mcplib.NewToolWithRawSchema(def.Name, def.Description, schema)
	readOnly := def.ReadOnly
	tool.Annotations.ReadOnlyHint = &readOnly
	return tool
}

func (s *Server) toolHandler(def gateway.ToolDefinition) mcpsrv.ToolHandlerFunc {
	var endpoint kit.Endpoint = func(ctx context.Context, request any) (any, error) {
		args, _ := request.(map[string]any)
		return s.gw.Call(ctx, def.Name, args)
	}
	endpoint = audit.Middleware(s.audit, def.Name, audit.KindTool)(endpoint)

	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		ctx = s.withRequest(ctx)
		resp, err := endpoint(ctx, req.GetArguments())
		if err != nil {
			s.logger.DebugContext(ctx, "tool failed", "component", "mcp", "tool", def.Name, "error", err)
			return resultErr(err), nil
		}
		return resultContent(resp.([]gateway.Content)), nil
	}
}

// resultContent converts gateway content to an MCP tool result.
func resultContent(content []gateway.Content) *mcplib.CallToolResult {
	out := make([]mcplib.Content, 0, len(content))
	for _, c := range content {
		out = append(out, mcplib.NewTextContent(c.Text))
	}
	return &mcplib.CallToolResult{Content: out}
}

// resultErr wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// --- resources ---

func resourceSpec(res gateway.ResourceDefinition) mcplib.Resource {
	return mcplib.NewResource(res.URI, res.Name,
		mcplib.WithResourceDescription(res.Description),
		mcplib.WithMIMEType(res.MIMEType),
	)
}

func (s *Server) resourceHandler(res gateway.ResourceDefinition) mcpsrv.ResourceHandlerFunc {
	return s.readHandler(res.URI, res.MIMEType)
}

// readHandler reads the requested URI through the gateway and audits it
// under action. Exact resources and the memo template share it.
func (s *Server) readHandler(action, mimeType string) mcpsrv.ResourceHandlerFunc {
	var endpoint kit.Endpoint = func(_ context.Context, request any) (any, error) {
		return s.gw.ReadResource(request.(string))
	}
	endpoint = audit.Middleware(s.audit, action, audit.KindResource)(endpoint)

	return func(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		ctx = s.withRequest(ctx)
		text, err := endpoint(ctx, req.Params.URI)
		if err != nil {
			return nil, err
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: mimeType,
				Text:     text.(string),
			},
		}, nil
	}
}

// --- prompts ---

func promptSpec(p gateway.PromptDefinition) mcplib.Prompt {
	opts := []mcplib.PromptOption{mcplib.WithPromptDescription(p.Description)}
	for _, a := range p.Arguments {
		argOpts := []mcplib.ArgumentOption{mcplib.ArgumentDescription(a.Description)}
		if a.Required {
			argOpts = append(argOpts, mcplib.RequiredArgument())
		}
		opts = append(opts, mcplib.WithArgument(a.Name, argOpts...))
	}
	return mcplib.NewPrompt(p.Name, opts...)
}

type promptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

func (s *Server) promptHandler(p gateway.PromptDefinition) mcpsrv.PromptHandlerFunc {
	var endpoint kit.Endpoint = func(_ context.Context, request any) (any, error) {
		r := request.(*promptRequest)
		return s.gw.GetPrompt(r.Name, r.Arguments)
	}
	endpoint = audit.Middleware(s.audit, p.Name, audit.KindPrompt)(endpoint)

	return func(ctx context.Context, req mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
		ctx = s.withRequest(ctx)
		resp, err := endpoint(ctx, &promptRequest{Name: req.Params.Name, Arguments: req.Params.Arguments})
		if err != nil {
			return nil, err
		}
		rendered := resp.(*gateway.PromptResult)
		msgs := make([]mcplib.PromptMessage, 0, len(rendered.Messages))
		for _, m := range rendered.Messages {
			msgs = append(msgs, mcplib.NewPromptMessage(mcplib.Role(m.Role), mcplib.NewTextContent(m.Text)))
		}
		return mcplib.NewGetPromptResult(rendered.Description, msgs), nil
	}
}
