package cmd

import (
	"fmt"
	"io"

	"github.com/bimmerbailey/logsift/internal/analyzer"
	"github.com/bimmerbailey/logsift/internal/output"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file>",
	Short: "Show pattern statistics for a log file",
	Long: `Cluster a log file and summarize the result: how many lines and
patterns there are, how lines split across severities, the error rate
and the most frequent patterns with their share of the file.

Examples:
  logsift stats /var/log/app.log
  logsift stats --top 5 --all app.log
  logsift stats --format json app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of top patterns to show")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]
	topN, _ := cmd.Flags().GetInt("top")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, cancel, err := commandContext(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	rep, err := buildReport(ctx, cmd, filePath, cfg, logger)
	if err != nil {
		return err
	}

	anlz := analyzer.New()
	stats := anlz.ComputeStats(rep, topN)

	if output.ParseFormat(cfg.Format) == output.FormatJSON {
		return output.New(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(stats)
	}

	levels, err := anlz.GroupBy(rep, "level", 0)
	if err != nil {
		return err
	}
	writeStatsText(cmd.OutOrStdout(), stats, levels)
	return nil
}

func writeStatsText(w io.Writer, stats analyzer.Stats, levels []analyzer.GroupedResult) {
	fmt.Fprintf(w, "Statistics for %s\n\n", stats.Source)
	fmt.Fprintf(w, "Eligible Lines: %d\n", stats.EligibleLines)
	fmt.Fprintf(w, "Unique Patterns: %d\n", stats.Patterns)
	fmt.Fprintf(w, "Singleton Patterns: %d\n", stats.Singletons)
	fmt.Fprintf(w, "Error Rate: %.2f%%\n", stats.ErrorRate*100)

	if len(levels) > 0 {
		fmt.Fprintln(w, "\nLevel Distribution:")
		for _, g := range levels {
			fmt.Fprintf(w, "  %-8s %8d (%.1f%%)\n", g.Key, g.Count, g.Percent)
		}
	}

	if len(stats.TopPatterns) > 0 {
		fmt.Fprintln(w, "\nTop Patterns:")
		for i, g := range stats.TopPatterns {
			fmt.Fprintf(w, "  %2d. [%dx] (%.1f%%) %s\n", i+1, g.Count, g.Percent, g.Key)
		}
	}
}
