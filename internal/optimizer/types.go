package optimizer

import (
	"context"

	"github.com/bimmerbailey/promptune/internal/dataset"
)

// Candidate is one generated instruction text, tagged with the
// iteration that produced it. Candidates are never mutated; each
// iteration creates a new one.
type Candidate struct {
	Text      string `json:"text"`
	Iteration int    `json:"iteration"`
}

// Prediction maps a record identifier to the label predicted for it by
// one candidate. A fresh Prediction is produced each iteration and
// supersedes, never merges with, the previous one.
type Prediction map[string]string

// IterationResult records the outcome of one completed iteration. Once
// appended to the history it is never mutated; the history is the audit
// trail for the run.
type IterationResult struct {
	Iteration   int        `json:"iteration"`
	Candidate   Candidate  `json:"candidate"`
	Score       float64    `json:"score"`
	Predictions Prediction `json:"predictions,omitempty"`
}

// State identifies where the loop controller is in its lifecycle.
type State int

const (
	// StateInit is the pre-validation state before any iteration runs.
	StateInit State = iota

	// StateIterating means the loop is actively refining candidates.
	StateIterating

	// StateConverged means an iteration reached full agreement (score 1.0).
	StateConverged

	// StateExhausted means the iteration budget ran out without converging.
	StateExhausted

	// StateFailed means a configuration error, collaborator fault, or
	// cancellation terminated the run.
	StateFailed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the three terminal states.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted || s == StateFailed
}

// MarshalJSON implements json.Marshaler for State.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// OptimizationState is the only mutable state in the core. It is owned
// exclusively by the loop controller during a run and safe to read once
// Optimize returns.
//
// Invariant: Best.Score == max score over History, and among equal
// scores Best is the earliest iteration.
type OptimizationState struct {
	// State is the current (after Optimize: terminal) loop state.
	State State `json:"state"`

	// History holds one result per completed iteration, append-only,
	// in iteration order.
	History []IterationResult `json:"history"`

	// Best is the best-so-far result, or nil if no iteration completed.
	Best *IterationResult `json:"best,omitempty"`

	// Iterations is the number of completed iterations.
	Iterations int `json:"iterations"`

	// Err records why the run failed; nil unless State is StateFailed.
	Err error `json:"-"`
}

// BestPrompt returns the best candidate text seen so far. ok is false
// when no iteration completed before the run terminated.
func (s *OptimizationState) BestPrompt() (text string, ok bool) {
	if s.Best == nil {
		return "", false
	}
	return s.Best.Candidate.Text, true
}

// Generator produces candidate instruction texts.
//
// For iteration 0, prev is nil and prevScore is meaningless; the
// generator works from static configuration alone. For later
// iterations prev is the best-so-far candidate and prevScore its
// agreement score.
type Generator interface {
	Generate(ctx context.Context, iteration int, prev *Candidate, prevScore float64) (Candidate, error)
}

// Predictor applies one candidate to every record and returns exactly
// one predicted label per record identifier. A failure for any single
// record makes the whole prediction set unusable, so implementations
// return an error rather than a partial map.
type Predictor interface {
	Predict(ctx context.Context, candidate Candidate, records []dataset.Record) (Prediction, error)
}
