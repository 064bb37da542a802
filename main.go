// Command sqlitemcp serves a SQLite database to MCP clients: query tools, a
// business insight memo resource and a guided analysis prompt.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/sqlitemcp/internal/config"
)

// cli holds state shared by subcommands.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "sqlitemcp",
		Short: "SQLite MCP server",
		Long: `sqlitemcp exposes a SQLite database to MCP clients.

Clients get six tools (read_query, write_query, create_table, list_tables,
describe_table, append_insight), the memo://insights resource and the
mcp-demo prompt. The server speaks MCP over stdio by default, or over
Streamable HTTP with optional bearer-token auth.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "sqlitemcp.toml", "path to config file (.toml, .yaml)")

	root.AddCommand(
		c.serveCmd(),
		c.tokenCmd(),
		c.hashPasswordCmd(),
		c.auditCmd(),
		c.statsCmd(),
		versionCmd(),
	)
	return root
}

// newLogger builds the process logger. It never writes to stdout, which
// carries the stdio transport.
func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
