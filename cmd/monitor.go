package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/promptune/internal/output"
	"github.com/bimmerbailey/promptune/internal/results"
	"github.com/bimmerbailey/promptune/internal/watch"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <run-dir>",
	Short: "Monitor a run's iteration log",
	Long: `Monitor the iteration log of an optimization run. Existing iterations
are replayed first; with --follow the log is then watched for new
iterations as the run produces them, until interrupted.

Examples:
  promptune monitor results/run_20260830_120000
  promptune monitor results/run_20260830_120000 --follow
  promptune monitor results/run_20260830_120000 -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Bool("follow", false, "keep watching for new iterations")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	format := output.ParseFormat(viper.GetString("format"))
	logPath := filepath.Join(args[0], results.IterationsFile)

	writer := output.New(cmd.OutOrStdout(), format)
	outputFunc := func(line results.IterationLine) error {
		if format == output.FormatJSON {
			return writer.WriteJSON(line)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "iteration %d  score %.2f  prompt %d chars  %s\n",
			line.Iteration, line.Score, line.PromptChars, line.Time.Format("15:04:05"))
		return err
	}

	follower := watch.New(watch.Options{
		FilePath:   logPath,
		Follow:     follow,
		OutputFunc: outputFunc,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- follower.Run(ctx)
	}()

	select {
	case <-sigChan:
		cancel()
		<-errChan
		return nil
	case err := <-errChan:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
