package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/sqlitemcp/internal/api"
	"github.com/hazyhaar/sqlitemcp/internal/auth"
	"github.com/hazyhaar/sqlitemcp/internal/config"
	"github.com/hazyhaar/sqlitemcp/internal/db"
	"github.com/hazyhaar/sqlitemcp/internal/gateway"
	"github.com/hazyhaar/sqlitemcp/internal/insight"
	"github.com/hazyhaar/sqlitemcp/internal/mcp"
	"github.com/hazyhaar/sqlitemcp/internal/sqlexec"
	"github.com/hazyhaar/sqlitemcp/pkg/audit"
	"github.com/hazyhaar/sqlitemcp/pkg/trace"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var dbPath, transport, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the database over MCP (stdio or HTTP)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("db-path") {
				c.cfg.Database.Path = dbPath
			}
			if flags.Changed("transport") {
				c.cfg.Server.Transport = transport
			}
			if flags.Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.cfg)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db-path", "", "database file, or :memory:")
	cmd.Flags().StringVar(&transport, "transport", "", "stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database opened", "component", "db", "path", cfg.Database.Path)
	if database.IsMemory() {
		slog.Warn("in-memory database, tables are lost on exit", "component", "db")
	}

	var traces *trace.Store
	mcpOpts := []mcp.Option{mcp.WithTransport(cfg.Server.Transport)}
	if cfg.Telemetry.Path != "" {
		tdb, err := db.OpenTelemetry(ctx, cfg.Telemetry.Path)
		if err != nil {
			return err
		}
		defer tdb.Close()

		traces = trace.NewStore(tdb.DB, time.Duration(cfg.Telemetry.SlowQueryMs)*time.Millisecond)
		defer traces.Close()

		auditLog := audit.NewSQLiteLogger(tdb.DB)
		defer auditLog.Close()
		mcpOpts = append(mcpOpts, mcp.WithAudit(auditLog))
	}

	// A nil *trace.Store still logs every statement.
	exec := sqlexec.New(database.DB, sqlexec.WithTracer(traces))
	gw := gateway.New(exec, insight.NewStore(), gateway.WithLogger(slog.Default()))
	srv := mcp.New(gw, mcpOpts...)

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		return serveHTTP(ctx, cfg, srv)
	default:
		return srv.ServeStdio(ctx)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, srv *mcp.Server) error {
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts := []api.Option{api.WithRateLimit(cfg.Server.RateLimit)}
	if cfg.Auth.Enabled() {
		a := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin)
		opts = append(opts, api.WithAuth(a, cfg.Auth.PasswordHash))
	} else if !isLoopback(cfg.Server.Addr) {
		slog.Warn("http transport without auth on a non-loopback address", "component", "http", "addr", cfg.Server.Addr)
	}
	httpSrv.Handler = api.New(srv.HTTPHandler(httpSrv), opts...).Handler()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("mcp server listening on http", "component", "http", "addr", cfg.Server.Addr, "auth", cfg.Auth.Enabled())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("mcp server shutting down", "component", "http")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
