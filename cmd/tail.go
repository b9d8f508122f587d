package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bimmerbailey/logsift/internal/preprocess"
	"github.com/bimmerbailey/logsift/internal/tail"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:   "tail [flags] <file>",
	Short: "Cluster lines as they are appended to a log file",
	Long: `Follow a log file like 'tail -f' and cluster every new line.

When the command stops (Ctrl-C, --timeout, or rotation without
--follow-rotate) the accumulated pattern report is printed in the same
format as 'logsift <file>'.

Examples:
  logsift tail /var/log/app.log
  logsift tail --timeout 10m --all /var/log/app.log
  logsift tail --from-start --follow-rotate /var/log/app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().Bool("from-start", false, "cluster the existing content before following")
	tailCmd.Flags().Bool("follow-rotate", false, "follow through log rotations (continue when file is renamed/removed)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]
	fromStart, _ := cmd.Flags().GetBool("from-start")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")

	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: File '%s' not found.\n", filePath)
		return errInputNotFound
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

	p := preprocess.New(
		preprocess.WithConfig(cfg.Cluster),
		preprocess.WithLogger(logger),
	)
	stream := p.NewStream()

	tailer := tail.New(tail.Options{
		FilePath:     filePath,
		FromStart:    fromStart,
		FollowRotate: followRotate,
		OnLine:       stream.Feed,
		Logger:       logger,
	})

	runErr := tailer.Run(ctx)
	if runErr != nil && !errors.Is(runErr, tail.ErrRotated) {
		return runErr
	}
	if errors.Is(runErr, tail.ErrRotated) {
		fmt.Fprintln(cmd.ErrOrStderr(), "File rotated; use --follow-rotate to follow through rotations.")
	}

	// Run only returns after the watch loop exits, so the stream is quiescent.
	return writeReport(cmd, p.Report(filePath, stream.Result()), cfg)
}
