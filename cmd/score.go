package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/promptune/internal/config"
	"github.com/bimmerbailey/promptune/internal/dataset"
	"github.com/bimmerbailey/promptune/internal/llm"
	"github.com/bimmerbailey/promptune/internal/optimizer"
	"github.com/bimmerbailey/promptune/internal/output"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an existing prompt against the dataset",
	Long: `Score a single prompt without running the optimization loop: classify
every case with the given prompt and report the fraction of predictions
that exactly match the ground-truth labels, along with the mismatched
case IDs.

Useful for evaluating a previously optimized prompt (best_prompt.txt
from an earlier run) against new or extended data.

Examples:
  promptune score --prompt results/run_20260830_120000/best_prompt.txt
  promptune score --prompt my_prompt.txt --inputs data/inputs --ground-truth data/gts`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

type scoreReport struct {
	Score      float64  `json:"score"`
	Records    int      `json:"records"`
	Matched    int      `json:"matched"`
	Mismatched []string `json:"mismatched,omitempty"`
}

func init() {
	scoreCmd.Flags().String("prompt", "", "path to the prompt file to evaluate (required)")
	scoreCmd.Flags().String("inputs", "", "directory of <case>_exam_input.json files (overrides config)")
	scoreCmd.Flags().String("ground-truth", "", "directory of <case>_gt.json files (overrides config)")
	_ = scoreCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cmd.Flags().Changed("inputs") {
		cfg.Data.InputsDir, _ = cmd.Flags().GetString("inputs")
	}
	if cmd.Flags().Changed("ground-truth") {
		cfg.Data.GroundTruthDir, _ = cmd.Flags().GetString("ground-truth")
	}

	promptPath, _ := cmd.Flags().GetString("prompt")
	text, err := os.ReadFile(promptPath)
	if err != nil {
		return fmt.Errorf("failed to read prompt file: %w", err)
	}
	candidate := optimizer.Candidate{Text: strings.TrimSpace(string(text))}
	if candidate.Text == "" {
		return fmt.Errorf("prompt file %s is empty", promptPath)
	}

	logger := newLogger(viper.GetBool("verbose"))

	records, gt, err := dataset.Load(cfg.Data.InputsDir, cfg.Data.GroundTruthDir)
	if err != nil {
		return err
	}
	if err := optimizer.ValidateDataset(records, gt); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	provider, err := llm.NewProvider(cfg.Predictor, logger.With("role", "predictor"))
	if err != nil {
		return fmt.Errorf("failed to create predictor provider: %w", err)
	}
	if err := provider.Heartbeat(ctx); err != nil {
		return fmt.Errorf("predictor provider %s unavailable: %w", cfg.Predictor.Provider, err)
	}

	predictor := optimizer.NewLLMPredictor(
		provider,
		llm.ChatOptions{
			Model:       cfg.Predictor.Model(),
			Temperature: cfg.Predictor.Temperature,
			MaxTokens:   cfg.Predictor.MaxTokens,
		},
		logger.With("role", "predictor"),
	)

	predictions, err := predictor.Predict(ctx, candidate, records)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	mismatched := optimizer.Mismatches(predictions, gt)
	report := scoreReport{
		Score:      optimizer.Score(predictions, gt),
		Records:    len(gt),
		Matched:    len(gt) - len(mismatched),
		Mismatched: mismatched,
	}

	if output.ParseFormat(viper.GetString("format")) == output.FormatJSON {
		return output.New(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Score: %.2f (%d/%d matched)\n", report.Score, report.Matched, report.Records)
	for _, id := range mismatched {
		fmt.Fprintf(out, "  mismatch: %s (predicted %q, expected %q)\n", id, predictions[id], gt[id])
	}
	return nil
}
