package cmd

import (
	"fmt"
	"regexp"

	"github.com/bimmerbailey/logsift/internal/analyzer"
	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/output"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] <file>",
	Short: "Show only the patterns that match a filter",
	Long: `Cluster a log file and keep the patterns that match a regex and/or a
minimum severity. The pattern is matched against both the masked template
(e.g. "timeout after <NUM>ms") and the sample line.

Examples:
  logsift search --pattern "timeout|refused" /var/log/app.log
  logsift search --level error app.log
  logsift search --pattern "<IP>" --invert app.log
  logsift search --count --level warn app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("pattern", "p", "", "regex matched against template and sample")
	searchCmd.Flags().StringP("level", "l", "", "minimum severity (debug, info, warn, error, fatal)")
	searchCmd.Flags().BoolP("count", "c", false, "only print the number of matching patterns and lines")
	searchCmd.Flags().BoolP("invert", "V", false, "invert match (show non-matching patterns)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]
	pattern, _ := cmd.Flags().GetString("pattern")
	levelStr, _ := cmd.Flags().GetString("level")
	countOnly, _ := cmd.Flags().GetBool("count")
	invert, _ := cmd.Flags().GetBool("invert")

	if invert && pattern == "" {
		return fmt.Errorf("--invert requires --pattern")
	}

	opts := analyzer.FilterOptions{MinLevel: config.LevelUnknown, Invert: invert}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		opts.Pattern = re
	}
	if levelStr != "" {
		opts.MinLevel = config.ParseLevel(levelStr)
		if opts.MinLevel == config.LevelUnknown {
			return fmt.Errorf("invalid level: %s", levelStr)
		}
	}

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

	filtered := analyzer.New().Filter(rep, opts)

	if countOnly {
		if output.ParseFormat(cfg.Format) == output.FormatJSON {
			return output.New(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(map[string]int{
				"patterns": filtered.TotalPatterns,
				"lines":    analyzer.Lines(filtered),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d patterns (%d lines)\n", filtered.TotalPatterns, analyzer.Lines(filtered))
		return nil
	}

	return output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).
		SetColor(output.ParseColorMode(cfg.Color)).
		WriteReport(filtered)
}
