package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/output"
	"github.com/bimmerbailey/logsift/internal/preprocess"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// errInputNotFound is returned after the not-found message has been printed,
// so Execute does not print it again.
var errInputNotFound = errors.New("input file not found")

var rootCmd = &cobra.Command{
	Use:   "logsift [flags] <file>",
	Short: "Collapse a log file into its distinct line patterns",
	Long: `Logsift reads a log file, masks the parts of each line that vary
(timestamps, UUIDs, IP addresses, hex values, long numbers) and prints
every distinct pattern once, with how often it occurred.

Lines containing INFO or DEBUG are skipped unless --all is given.

Examples:
  logsift /var/log/app.log
  logsift --all /var/log/app.log
  logsift --workers 4 --timeout 30s huge.log
  logsift --format json app.log
  logsift tail --timeout 5m /var/log/app.log
  logsift explain app.log "why does the worker crash?"`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errInputNotFound) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.logsift.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print processing statistics and debug logs to stderr")
	rootCmd.PersistentFlags().String("color", "auto", "color pattern lines by severity (auto, always, never)")
	rootCmd.PersistentFlags().Bool("all", false, "include INFO and DEBUG lines")
	rootCmd.PersistentFlags().Int("workers", config.DefaultWorkers, "number of parallel clustering workers")
	rootCmd.PersistentFlags().String("timeout", "", "stop after this long and report what was read (e.g. 30s, 5m)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("cluster.include_noise", rootCmd.PersistentFlags().Lookup("all"))
	_ = viper.BindPFlag("cluster.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LOGSIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// setDefaults registers every configuration key so that viper.Unmarshal and
// environment overrides see them.
func setDefaults() {
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("color", "auto")
	viper.SetDefault("timeout", "")

	cluster := config.DefaultClusterConfig()
	viper.SetDefault("cluster.include_noise", cluster.IncludeNoise)
	viper.SetDefault("cluster.noise_keywords", cluster.NoiseKeywords)
	viper.SetDefault("cluster.max_sample_length", cluster.MaxSampleLength)
	viper.SetDefault("cluster.separator_width", cluster.SeparatorWidth)
	viper.SetDefault("cluster.workers", cluster.Workers)

	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 0)
	viper.SetDefault("llm.ollama.host", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.2")
	viper.SetDefault("llm.ollama.keep_alive", "")
	viper.SetDefault("llm.ollama.num_ctx", 0)
}

// loadConfig unmarshals the merged flag, env, file and default settings.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Cluster = cfg.Cluster.Normalize()
	return cfg, nil
}

// newLogger returns a stderr logger. Verbose mode enables debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// commandContext is cancelled on SIGINT/SIGTERM and, when --timeout is set,
// after the timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc, error) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	timeout, err := config.ParseDuration(viper.GetString("timeout"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --timeout value: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop, nil
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	file := args[0]

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

	rep, err := buildReport(ctx, cmd, file, cfg, logger)
	if err != nil {
		return err
	}

	return writeReport(cmd, rep, cfg)
}

// buildReport clusters file. A missing file prints the not-found message on
// stdout. A run cut short by the context still yields a report.
func buildReport(ctx context.Context, cmd *cobra.Command, file string, cfg *config.Config, logger *slog.Logger) (*preprocess.Report, error) {
	p := preprocess.New(
		preprocess.WithConfig(cfg.Cluster),
		preprocess.WithLogger(logger),
	)

	res, err := p.ProcessFile(ctx, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "Error: File '%s' not found.\n", file)
			return nil, errInputNotFound
		}
		if res == nil {
			return nil, fmt.Errorf("failed to process %s: %w", file, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: stopped early (%v); the report covers the first %d lines.\n",
			err, res.Stats.LinesRead)
	}

	return p.Report(file, res), nil
}

// writeReport renders rep on stdout and, in verbose mode, statistics on stderr.
func writeReport(cmd *cobra.Command, rep *preprocess.Report, cfg *config.Config) error {
	rendered, err := output.RenderText(rep)
	if err != nil {
		return err
	}
	savings := preprocess.EstimateSavings(rep.Stats.InputBytes, len(rendered))
	rep.Tokens = &savings

	writer := output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).
		SetColor(output.ParseColorMode(cfg.Color))
	if err := writer.WriteReport(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.Verbose {
		writeProcessingStats(cmd.ErrOrStderr(), rep)
	}
	return nil
}

func writeProcessingStats(w io.Writer, rep *preprocess.Report) {
	s := rep.Stats
	fmt.Fprintln(w, "\n=== Processing Statistics ===")
	fmt.Fprintf(w, "Lines read: %d\n", s.LinesRead)
	fmt.Fprintf(w, "Blank lines: %d\n", s.Blank)
	fmt.Fprintf(w, "Noise filtered: %d\n", s.Noise)
	fmt.Fprintf(w, "Eligible lines: %d\n", s.Eligible)
	fmt.Fprintf(w, "Unique patterns: %d\n", s.Patterns)
	fmt.Fprintf(w, "Compression ratio: %.1fx\n", rep.CompressionRatio())
	if rep.Tokens != nil {
		fmt.Fprintf(w, "Estimated tokens: %d raw, %d summary (%.1f%% saved)\n",
			rep.Tokens.RawTokens, rep.Tokens.SummaryTokens, rep.Tokens.Percent)
	}
}
