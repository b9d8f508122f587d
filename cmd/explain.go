package cmd

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/llm"
	_ "github.com/bimmerbailey/logsift/internal/llm/ollama"
	"github.com/bimmerbailey/logsift/internal/output"
	"github.com/bimmerbailey/logsift/internal/prompt"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <file> [question]",
	Short: "Ask a local LLM about a log file's patterns",
	Long: `Cluster a log file and send the pattern report, not the raw log, to a
local Ollama model.

Without a question the model summarizes the report; --mode root_cause asks
for a diagnosis instead. With a question the model answers it.

Examples:
  logsift explain app.log
  logsift explain --mode root_cause app.log
  logsift explain app.log "why does the payment worker crash?"
  logsift explain --all --model qwen2.5 app.log`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("mode", "summarize", "analysis mode without a question (summarize, root_cause)")
	explainCmd.Flags().String("model", "", "override the configured model")

	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	file := args[0]
	question := ""
	if len(args) > 1 {
		question = strings.TrimSpace(args[1])
	}
	modeStr, _ := cmd.Flags().GetString("mode")
	modelOverride, _ := cmd.Flags().GetString("model")

	mode, err := prompt.ParseType(modeStr)
	if err != nil {
		return err
	}
	if question != "" {
		mode = prompt.TypeQuestion
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

	rep, err := buildReport(ctx, cmd, file, cfg, logger)
	if err != nil {
		return err
	}
	if rep.TotalPatterns == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No patterns to explain. Try --all to include INFO and DEBUG lines.")
		return nil
	}

	summary, err := output.RenderText(rep)
	if err != nil {
		return err
	}

	messages, err := prompt.Build(mode, prompt.BuildOptions{
		Summary:     summary,
		Question:    question,
		Source:      file,
		NoiseHidden: rep.NoiseHidden,
		Partial:     rep.Partial,
	})
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w\n\nTroubleshooting:\n- Ensure Ollama is running: ollama serve\n- Check provider config in ~/.logsift.yaml", err)
	}

	if err := provider.Heartbeat(ctx); err != nil {
		return fmt.Errorf("cannot connect to Ollama at %s: %w\n\nStart Ollama with: ollama serve",
			cfg.LLM.Ollama.Host, err)
	}

	chatOpts := chatOptions(cfg, modelOverride)
	pulled, err := provider.ModelAvailable(ctx, chatOpts.Model)
	if err != nil {
		return fmt.Errorf("failed to list Ollama models: %w", err)
	}
	if !pulled {
		return fmt.Errorf("%w: %s\n\nPull it with: ollama pull %s", llm.ErrModelNotFound, chatOpts.Model, chatOpts.Model)
	}

	if output.ParseFormat(cfg.Format) == output.FormatJSON {
		resp, err := provider.Complete(ctx, messages, chatOpts)
		if err != nil {
			return fmt.Errorf("LLM request failed: %w", err)
		}
		result := map[string]interface{}{
			"file":     file,
			"mode":     string(mode),
			"question": question,
			"model":    resp.Model,
			"patterns": rep.TotalPatterns,
			"partial":  rep.Partial,
			"answer":   resp.Content,
			"usage":    resp.Usage,
		}
		return output.New(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Answer ===")
	fmt.Fprintln(out)

	streamed := false
	resp, err := provider.Stream(ctx, messages, chatOpts, func(text string) error {
		streamed = true
		_, err := fmt.Fprint(out, text)
		return err
	})
	if err != nil {
		if streamed {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n\nError during streaming: %v\n", err)
		}
		return err
	}
	fmt.Fprintln(out)

	logger.Debug("explain finished",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return nil
}

// chatOptions maps the LLM config onto per-request options.
func chatOptions(cfg *config.Config, modelOverride string) *llm.ChatOptions {
	opts := &llm.ChatOptions{
		Model:       cfg.LLM.Ollama.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	if modelOverride != "" {
		opts.Model = modelOverride
	}
	return opts
}
