package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/eventnexus-go/internal/client"
	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
)

func newStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		Long: `Show the runtime statistics of an EventNexus server: per-operation
timings, token usage of answer generation and event counters.

Statistics are in-memory and reset when the server restarts. Uses --server,
or the configured server URL when the flag is not set.

Examples:
  eventnexus stats
  eventnexus stats --server http://events.internal:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			endpoint := g.serverURL
			if endpoint == "" {
				endpoint = g.cfg.ServerURL
			}
			stats, err := client.New(endpoint).Stats(ctx)
			if err != nil {
				return fmt.Errorf("get server stats: %w", err)
			}
			printServerStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

// printServerStats displays server runtime statistics.
func printServerStats(w io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintln(w, defaultTheme.titleStyle().Render("Server Statistics (in-memory, since restart)"))
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	ops := []struct {
		title  string
		op     *metrics.OperationSnapshot
		tokens bool
	}{
		{"Recommendations", stats.Recommend, false},
		{"Chat", stats.Chat, false},
		{"Retrieval", stats.Retrieve, false},
		{"Embeddings", stats.Embedding, false},
		{"LLM Generate", stats.LLMGenerate, true},
		{"LLM Stream", stats.LLMStream, true},
		{"Snapshot Build", stats.SnapshotBuild, false},
		{"DB Query", stats.DBQuery, false},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", o.title)
		printOpStats(w, o.op)
		if o.tokens {
			printTokenStats(w, o.op)
		}
	}

	if len(stats.Counters) > 0 {
		fmt.Fprintf(w, "\nCounters:\n")
		names := make([]string, 0, len(stats.Counters))
		for name := range stats.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-22s %d\n", name, stats.Counters[name])
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgInputTokens)
	}
	if op.MinInputTokens != nil && op.MaxInputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinInputTokens, *op.MaxInputTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgOutputTokens)
	}
	if op.MinOutputTokens != nil && op.MaxOutputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinOutputTokens, *op.MaxOutputTokens)
	}
	fmt.Fprintln(w)
}
