package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/sqlitemcp/internal/db"
	"github.com/hazyhaar/sqlitemcp/pkg/audit"
	"github.com/hazyhaar/sqlitemcp/pkg/trace"
)

var errNoTelemetry = errors.New("telemetry.path is not configured")

func (c *cli) openTelemetry(ctx context.Context) (*db.TelemetryDB, error) {
	if c.cfg.Telemetry.Path == "" {
		return nil, errNoTelemetry
	}
	return db.OpenTelemetry(ctx, c.cfg.Telemetry.Path)
}

func (c *cli) auditCmd() *cobra.Command {
	var (
		limit   int
		traceID string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent MCP requests from the audit log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tdb, err := c.openTelemetry(cmd.Context())
			if err != nil {
				return err
			}
			defer tdb.Close()

			if traceID != "" {
				stmts, err := trace.ByTrace(cmd.Context(), tdb, traceID)
				if err != nil {
					return fmt.Errorf("reading sql traces: %w", err)
				}
				printTrace(cmd.OutOrStdout(), traceID, stmts)
				return nil
			}

			entries, err := audit.Recent(cmd.Context(), tdb, limit)
			if err != nil {
				return fmt.Errorf("reading audit log: %w", err)
			}
			printAudit(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().StringVar(&traceID, "trace", "", "list the SQL statements run under this trace ID")
	return cmd
}

func printTrace(w io.Writer, traceID string, stmts []trace.Entry) {
	if len(stmts) == 0 {
		fmt.Fprintf(w, "no statements recorded for %s\n", traceID)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOP\tDURATION\tQUERY\tERROR")
	for _, e := range stmts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			time.UnixMicro(e.Timestamp).Format(time.DateTime),
			e.Op, e.Duration(), e.Query, dash(e.Error))
	}
	tw.Flush()
}

func printAudit(w io.Writer, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return
	}
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tACTION\tTRANSPORT\tUSER\tDURATION\tSTATUS")
	for _, e := range entries {
		status := ok(e.Status)
		if e.Status != "success" {
			status = bad(e.Status + ": " + e.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%dms\t%s\n",
			time.UnixMilli(e.Timestamp).Format(time.DateTime),
			e.Kind, e.Action, e.Transport, dash(e.UserID), e.DurationMs, status)
	}
	tw.Flush()
}

func (c *cli) statsCmd() *cobra.Command {
	var slowLimit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-tool usage, slow queries and database size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			printDBSize(out, c.cfg.Database.Path)

			tdb, err := c.openTelemetry(cmd.Context())
			if errors.Is(err, errNoTelemetry) {
				fmt.Fprintln(out, "telemetry disabled")
				return nil
			}
			if err != nil {
				return err
			}
			defer tdb.Close()

			stats, err := audit.ToolStats(cmd.Context(), tdb)
			if err != nil {
				return fmt.Errorf("reading tool stats: %w", err)
			}
			slow, err := trace.SlowQueries(cmd.Context(), tdb,
				time.Duration(c.cfg.Telemetry.SlowQueryMs)*time.Millisecond, slowLimit)
			if err != nil {
				return fmt.Errorf("reading slow queries: %w", err)
			}
			printStats(out, stats, slow)
			return nil
		},
	}
	cmd.Flags().IntVar(&slowLimit, "slow", 10, "number of slow queries to list")
	return cmd
}

func printDBSize(w io.Writer, path string) {
	if path == db.MemoryPath {
		fmt.Fprintln(w, "database: in memory")
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "database: %s (not created yet)\n", path)
		return
	}
	fmt.Fprintf(w, "database: %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
}

func printStats(w io.Writer, stats []audit.ActionStats, slow []trace.Entry) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tKIND\tCALLS\tERRORS\tAVG\tLAST")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1fms\t%s\n",
			s.Action, s.Kind, humanize.Comma(s.Calls), humanize.Comma(s.Errors),
			s.AvgDurationMs, humanize.Time(time.UnixMilli(s.LastSeen)))
	}
	tw.Flush()

	if len(slow) == 0 {
		return
	}
	fmt.Fprintln(w, "\nslow queries:")
	for _, e := range slow {
		fmt.Fprintf(w, "  %8s  %s\n", e.Duration().Round(time.Millisecond), e.Query)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
