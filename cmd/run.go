package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/promptune/internal/config"
	"github.com/bimmerbailey/promptune/internal/dataset"
	"github.com/bimmerbailey/promptune/internal/llm"
	"github.com/bimmerbailey/promptune/internal/optimizer"
	"github.com/bimmerbailey/promptune/internal/output"
	"github.com/bimmerbailey/promptune/internal/results"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the prompt optimization loop",
	Long: `Run the full optimization loop: load the diagnostic cases and their
ground-truth labels, then iteratively generate candidate prompts,
classify every case with each candidate, and score agreement until the
prompt converges (full agreement), the iteration budget runs out, or a
collaborator fails.

Artifacts are written into a timestamped directory under the results
root: the best prompt seen so far (updated on every improvement), an
append-only iteration log, and a final report.

Examples:
  promptune run
  promptune run --inputs data/inputs --ground-truth data/gts --out results
  promptune run --max-iterations 5 --keep-predictions`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("inputs", "", "directory of <case>_exam_input.json files (overrides config)")
	runCmd.Flags().String("ground-truth", "", "directory of <case>_gt.json files (overrides config)")
	runCmd.Flags().String("out", "", "parent directory for run artifacts (overrides config)")
	runCmd.Flags().Int("max-iterations", 0, "iteration budget (overrides config)")
	runCmd.Flags().String("task", "", "task description seeding the initial prompt (overrides config)")
	runCmd.Flags().Bool("keep-predictions", false, "retain raw per-record predictions in the run history")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyRunFlags(cmd, cfg)

	keepPredictions, _ := cmd.Flags().GetBool("keep-predictions")
	format := output.ParseFormat(viper.GetString("format"))
	logger := newLogger(viper.GetBool("verbose"))

	// Load the dataset once; it is immutable for the whole run.
	records, gt, err := dataset.Load(cfg.Data.InputsDir, cfg.Data.GroundTruthDir)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "records", len(records), "labels", len(gt))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel between iterations on interrupt; partial progress is
	// still persisted below.
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

	generator, predictor, err := buildCollaborators(ctx, cfg, logger)
	if err != nil {
		return err
	}

	run, err := results.NewRun(cfg.Data.ResultsDir, time.Now())
	if err != nil {
		return err
	}
	defer run.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "Run directory: %s\n", run.Dir())

	// Persist each iteration as it completes and rewrite the best
	// prompt on every improvement, so an interrupted run still leaves
	// its strongest prompt on disk.
	bestScore := -1.0
	onIteration := func(res optimizer.IterationResult) error {
		if err := run.AppendIteration(res); err != nil {
			return err
		}
		if res.Score > bestScore {
			bestScore = res.Score
			return run.WriteBestPrompt(res.Candidate.Text)
		}
		return nil
	}

	opt := optimizer.New(generator, predictor, optimizer.Options{
		MaxIterations:   cfg.Optimizer.MaxIterations,
		OnIteration:     onIteration,
		KeepPredictions: keepPredictions,
		Logger:          logger,
	})

	st, optErr := opt.Optimize(ctx, records, gt)

	// The terminal state is reported whether the run succeeded or not.
	if text, ok := st.BestPrompt(); ok {
		if err := run.WriteBestPrompt(text); err != nil {
			logger.Error("failed to persist best prompt", "error", err)
		}
	}
	if err := run.WriteReport(st); err != nil {
		logger.Error("failed to persist report", "error", err)
	}

	writer := output.New(cmd.OutOrStdout(), format)
	if err := writer.WriteState(st); err != nil {
		return err
	}

	if optErr != nil {
		return fmt.Errorf("optimization ended at iteration %d: %w", st.Iterations, optErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Best prompt written to %s\n", run.Dir())
	return nil
}

// applyRunFlags overlays explicitly-set command flags onto the config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("inputs") {
		cfg.Data.InputsDir, _ = cmd.Flags().GetString("inputs")
	}
	if cmd.Flags().Changed("ground-truth") {
		cfg.Data.GroundTruthDir, _ = cmd.Flags().GetString("ground-truth")
	}
	if cmd.Flags().Changed("out") {
		cfg.Data.ResultsDir, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.Optimizer.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
	}
	if cmd.Flags().Changed("task") {
		cfg.Optimizer.TaskDescription, _ = cmd.Flags().GetString("task")
	}
}

// buildCollaborators creates and health-checks the two LLM roles.
func buildCollaborators(ctx context.Context, cfg *config.Config, logger *slog.Logger) (optimizer.Generator, optimizer.Predictor, error) {
	genProvider, err := llm.NewProvider(cfg.Generator, logger.With("role", "generator"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generator provider: %w", err)
	}
	if err := genProvider.Heartbeat(ctx); err != nil {
		return nil, nil, fmt.Errorf("generator provider %s unavailable: %w", cfg.Generator.Provider, err)
	}

	predProvider, err := llm.NewProvider(cfg.Predictor, logger.With("role", "predictor"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create predictor provider: %w", err)
	}
	if err := predProvider.Heartbeat(ctx); err != nil {
		return nil, nil, fmt.Errorf("predictor provider %s unavailable: %w", cfg.Predictor.Provider, err)
	}

	if model := cfg.Predictor.Model(); model != "" {
		available, err := predProvider.ModelAvailable(ctx, model)
		if err == nil && !available {
			return nil, nil, fmt.Errorf("predictor model %q is not available (for ollama: ollama pull %s)", model, model)
		}
	}

	generator := optimizer.NewLLMGenerator(
		genProvider,
		cfg.Optimizer.TaskDescription,
		llm.ChatOptions{
			Model:       cfg.Generator.Model(),
			Temperature: cfg.Generator.Temperature,
			MaxTokens:   cfg.Generator.MaxTokens,
		},
		logger.With("role", "generator"),
	)

	predictor := optimizer.NewLLMPredictor(
		predProvider,
		llm.ChatOptions{
			Model:       cfg.Predictor.Model(),
			Temperature: cfg.Predictor.Temperature,
			MaxTokens:   cfg.Predictor.MaxTokens,
		},
		logger.With("role", "predictor"),
	)

	return generator, predictor, nil
}

// newLogger builds the stderr logger used by all commands.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
