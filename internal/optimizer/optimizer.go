package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bimmerbailey/promptune/internal/dataset"
)

// Options configures one optimization run.
type Options struct {
	// MaxIterations bounds the loop; must be positive.
	MaxIterations int

	// OnIteration, when set, is called after each completed iteration's
	// result has been appended to the history. A callback error aborts
	// the run (state Failed, history preserved).
	OnIteration func(IterationResult) error

	// KeepPredictions controls whether each IterationResult retains its
	// raw prediction set. History grows with the dataset when enabled.
	KeepPredictions bool

	// Logger receives progress events; nil means slog.Default().
	Logger *slog.Logger
}

// Optimizer drives the refinement loop. It owns the OptimizationState
// for the duration of a run; nothing else observes or mutates it until
// Optimize returns.
type Optimizer struct {
	generator Generator
	predictor Predictor
	opts      Options
	logger    *slog.Logger
}

// New creates an Optimizer from its two collaborators.
func New(generator Generator, predictor Predictor, opts Options) *Optimizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Optimizer{
		generator: generator,
		predictor: predictor,
		opts:      opts,
		logger:    logger,
	}
}

// Optimize runs the loop to a terminal state and returns the final
// OptimizationState. The returned state is always non-nil: on failure
// it carries the history accumulated so far, the terminal StateFailed,
// and the same error that is returned, so partial progress survives
// every outcome.
//
// Cancellation via ctx is honored between iterations (and between
// records inside the predictor) and terminates the run as Failed.
func (o *Optimizer) Optimize(ctx context.Context, records []dataset.Record, gt dataset.GroundTruth) (*OptimizationState, error) {
	st := &OptimizationState{State: StateInit}

	if err := validate(o.opts.MaxIterations, records, gt); err != nil {
		return o.fail(st, err)
	}

	st.State = StateIterating
	o.logger.Info("optimization started",
		"records", len(records),
		"max_iterations", o.opts.MaxIterations,
	)

	for i := 0; i < o.opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return o.fail(st, fmt.Errorf("canceled before iteration %d: %w", i, err))
		}

		// Feed the generator the best candidate so far, not the most
		// recent one, so a regression never becomes the new baseline.
		var prev *Candidate
		var prevScore float64
		if st.Best != nil {
			prev = &st.Best.Candidate
			prevScore = st.Best.Score
		}

		candidate, err := o.generator.Generate(ctx, i, prev, prevScore)
		if err != nil {
			return o.fail(st, &GenerationError{Iteration: i, Err: err})
		}
		candidate.Iteration = i

		predictions, err := o.predictor.Predict(ctx, candidate, records)
		if err != nil {
			return o.fail(st, &IterationError{Iteration: i, Err: err})
		}
		if err := complete(predictions, records); err != nil {
			return o.fail(st, &IterationError{Iteration: i, Err: err})
		}

		result := IterationResult{
			Iteration: i,
			Candidate: candidate,
			Score:     Score(predictions, gt),
		}
		if o.opts.KeepPredictions {
			result.Predictions = predictions
		}

		st.History = append(st.History, result)
		st.Iterations = i + 1

		// Strictly-greater keeps the earliest iteration on score ties.
		if st.Best == nil || result.Score > st.Best.Score {
			best := result
			st.Best = &best
		}

		o.logger.Info("iteration complete",
			"iteration", i,
			"score", result.Score,
			"best_score", st.Best.Score,
			"best_iteration", st.Best.Iteration,
		)

		if o.opts.OnIteration != nil {
			if err := o.opts.OnIteration(result); err != nil {
				return o.fail(st, fmt.Errorf("iteration callback: %w", err))
			}
		}

		if result.Score == 1.0 {
			st.State = StateConverged
			o.logger.Info("optimization converged", "iteration", i)
			return st, nil
		}
	}

	st.State = StateExhausted
	o.logger.Info("optimization exhausted",
		"iterations", st.Iterations,
		"best_score", st.Best.Score,
		"best_iteration", st.Best.Iteration,
	)
	return st, nil
}

// fail transitions to the Failed terminal state, preserving history.
func (o *Optimizer) fail(st *OptimizationState, err error) (*OptimizationState, error) {
	st.State = StateFailed
	st.Err = err
	o.logger.Error("optimization failed", "iterations", st.Iterations, "error", err)
	return st, err
}

// validate checks the run configuration before any iteration: a
// positive iteration budget plus the dataset checks.
func validate(maxIterations int, records []dataset.Record, gt dataset.GroundTruth) error {
	if maxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrConfiguration, maxIterations)
	}
	return ValidateDataset(records, gt)
}

// ValidateDataset checks that the record set is non-empty, uniquely
// identified, and in strict 1:1 correspondence with the ground-truth
// keys. The loop controller runs it before iterating; one-shot scoring
// runs the same check before predicting.
func ValidateDataset(records []dataset.Record, gt dataset.GroundTruth) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: record set is empty", ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("%w: record with empty identifier", ErrConfiguration)
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate record identifier %q", ErrConfiguration, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		if _, ok := gt[rec.ID]; !ok {
			return fmt.Errorf("%w: record %q has no ground truth label", ErrConfiguration, rec.ID)
		}
	}

	for id := range gt {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("%w: ground truth label %q has no record", ErrConfiguration, id)
		}
	}

	return nil
}

// complete verifies the predictor honored its contract of exactly one
// prediction per record identifier.
func complete(pred Prediction, records []dataset.Record) error {
	for _, rec := range records {
		if _, ok := pred[rec.ID]; !ok {
			return fmt.Errorf("missing prediction for record %q", rec.ID)
		}
	}
	if len(pred) != len(records) {
		return errors.New("prediction set contains unknown record identifiers")
	}
	return nil
}
