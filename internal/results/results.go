// Package results persists the artifacts of an optimization run.
//
// Each run gets its own timestamped directory under the configured
// results root:
//
//	results/
//	  run_20250130_142233/
//	    iterations.log   append-only JSON lines, one per iteration
//	    best_prompt.txt  best candidate text, rewritten on improvement
//	    report.json      final state summary, written once at the end
//
// iterations.log is written incrementally so a separate process can
// follow the run live (see internal/watch).
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bimmerbailey/promptune/internal/optimizer"
)

const (
	// IterationsFile is the JSON-lines iteration log inside a run directory.
	IterationsFile = "iterations.log"

	// BestPromptFile holds the best candidate text inside a run directory.
	BestPromptFile = "best_prompt.txt"

	// ReportFile is the final run summary inside a run directory.
	ReportFile = "report.json"
)

// ErrNoBestPrompt indicates a report was requested for a run in which
// no iteration completed, so there is no prompt to persist.
var ErrNoBestPrompt = errors.New("results: no best prompt to write")

// IterationLine is one record in iterations.log.
type IterationLine struct {
	Iteration   int       `json:"iteration"`
	Score       float64   `json:"score"`
	PromptChars int       `json:"prompt_chars"`
	Time        time.Time `json:"time"`
}

// Report is the final summary written to report.json.
type Report struct {
	State          string    `json:"state"`
	Iterations     int       `json:"iterations"`
	BestScore      float64   `json:"best_score"`
	BestIteration  int       `json:"best_iteration"`
	Error          string    `json:"error,omitempty"`
	Started        time.Time `json:"started"`
	Finished       time.Time `json:"finished"`
	DurationSecond float64   `json:"duration_seconds"`
}

// Run owns one run directory and its artifact files.
type Run struct {
	dir     string
	started time.Time
	itersFh *os.File
}

// NewRun creates a fresh run directory under parent and opens the
// iteration log for appending.
func NewRun(parent string, now time.Time) (*Run, error) {
	dir := filepath.Join(parent, "run_"+now.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("results: creating run dir: %w", err)
	}

	fh, err := os.OpenFile(filepath.Join(dir, IterationsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("results: opening iteration log: %w", err)
	}

	return &Run{dir: dir, started: now, itersFh: fh}, nil
}

// Dir returns the run directory path.
func (r *Run) Dir() string { return r.dir }

// AppendIteration writes one JSON line for a completed iteration and
// flushes it so followers see it immediately.
func (r *Run) AppendIteration(res optimizer.IterationResult) error {
	line := IterationLine{
		Iteration:   res.Iteration,
		Score:       res.Score,
		PromptChars: len(res.Candidate.Text),
		Time:        time.Now(),
	}

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("results: encoding iteration line: %w", err)
	}

	if _, err := r.itersFh.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("results: appending iteration line: %w", err)
	}

	return r.itersFh.Sync()
}

// WriteBestPrompt persists the best candidate text. Called on every
// improvement during the run and once more at the end, mirroring how a
// long run should survive interruption with its best prompt on disk.
func (r *Run) WriteBestPrompt(text string) error {
	path := filepath.Join(r.dir, BestPromptFile)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("results: writing best prompt: %w", err)
	}
	return nil
}

// WriteReport persists the final summary for the run. The state is
// written whether the run succeeded or failed, so partial progress is
// always inspectable afterwards.
func (r *Run) WriteReport(st *optimizer.OptimizationState) error {
	finished := time.Now()

	report := Report{
		State:          st.State.String(),
		Iterations:     st.Iterations,
		Started:        r.started,
		Finished:       finished,
		DurationSecond: finished.Sub(r.started).Seconds(),
	}
	if st.Best != nil {
		report.BestScore = st.Best.Score
		report.BestIteration = st.Best.Iteration
	}
	if st.Err != nil {
		report.Error = st.Err.Error()
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("results: encoding report: %w", err)
	}

	path := filepath.Join(r.dir, ReportFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("results: writing report: %w", err)
	}

	return nil
}

// Close releases the iteration log handle.
func (r *Run) Close() error {
	return r.itersFh.Close()
}
