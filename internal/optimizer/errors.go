package optimizer

import (
	"errors"
	"fmt"
)

// ErrConfiguration indicates bad or missing input data: an empty record
// set, mismatched ground-truth keys, or an invalid iteration budget.
// Configuration errors are detected before any iteration runs.
var ErrConfiguration = errors.New("optimizer: invalid configuration")

// GenerationError indicates the prompt-generation collaborator failed
// or returned an unusable instruction. Fatal; the run ends at the
// iteration that raised it.
type GenerationError struct {
	Iteration int
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("optimizer: prompt generation failed at iteration %d: %v", e.Iteration, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PredictionError indicates inference failed for a single record.
type PredictionError struct {
	RecordID string
	Err      error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("optimizer: prediction failed for record %q: %v", e.RecordID, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// IterationError indicates an iteration produced an incomplete
// prediction set and could not be scored. It wraps the PredictionError
// (or other fault) that made the set incomplete. Fatal; there is no
// partial-credit scoring.
type IterationError struct {
	Iteration int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("optimizer: iteration %d incomplete: %v", e.Iteration, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }
