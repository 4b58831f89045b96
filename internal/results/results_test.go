package results

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bimmerbailey/promptune/internal/optimizer"
)

func TestNewRun(t *testing.T) {
	parent := t.TempDir()
	now := time.Date(2026, 8, 30, 12, 4, 5, 0, time.UTC)

	run, err := NewRun(parent, now)
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	defer run.Close()

	want := filepath.Join(parent, "run_20260830_120405")
	if run.Dir() != want {
		t.Errorf("Dir() = %q, want %q", run.Dir(), want)
	}
	if _, err := os.Stat(filepath.Join(run.Dir(), IterationsFile)); err != nil {
		t.Errorf("iteration log not created: %v", err)
	}
}

func TestAppendIteration(t *testing.T) {
	run, err := NewRun(t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	defer run.Close()

	results := []optimizer.IterationResult{
		{Iteration: 0, Candidate: optimizer.Candidate{Text: "first"}, Score: 0.5},
		{Iteration: 1, Candidate: optimizer.Candidate{Text: "second prompt"}, Score: 0.75},
	}
	for _, res := range results {
		if err := run.AppendIteration(res); err != nil {
			t.Fatalf("AppendIteration() error = %v", err)
		}
	}

	fh, err := os.Open(filepath.Join(run.Dir(), IterationsFile))
	if err != nil {
		t.Fatalf("opening iteration log: %v", err)
	}
	defer fh.Close()

	var lines []IterationLine
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		var line IterationLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decoding line: %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Iteration != 0 || lines[0].Score != 0.5 {
		t.Errorf("lines[0] = %+v, want iteration 0 score 0.5", lines[0])
	}
	if lines[1].PromptChars != len("second prompt") {
		t.Errorf("lines[1].PromptChars = %d, want %d", lines[1].PromptChars, len("second prompt"))
	}
	if lines[0].Time.IsZero() {
		t.Error("lines[0].Time is zero")
	}
}

func TestWriteBestPrompt(t *testing.T) {
	run, err := NewRun(t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	defer run.Close()

	if err := run.WriteBestPrompt("the best prompt"); err != nil {
		t.Fatalf("WriteBestPrompt() error = %v", err)
	}
	// Overwritten on improvement.
	if err := run.WriteBestPrompt("an even better prompt"); err != nil {
		t.Fatalf("WriteBestPrompt() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(run.Dir(), BestPromptFile))
	if err != nil {
		t.Fatalf("reading best prompt: %v", err)
	}
	if string(data) != "an even better prompt" {
		t.Errorf("best prompt = %q, want latest text", data)
	}
}

func TestWriteReport(t *testing.T) {
	tests := []struct {
		name      string
		state     *optimizer.OptimizationState
		wantState string
		wantBest  float64
		wantError bool
	}{
		{
			name: "converged run",
			state: &optimizer.OptimizationState{
				State:      optimizer.StateConverged,
				Iterations: 2,
				Best: &optimizer.IterationResult{
					Iteration: 1,
					Score:     1.0,
				},
			},
			wantState: "converged",
			wantBest:  1.0,
		},
		{
			name: "failed run without iterations",
			state: &optimizer.OptimizationState{
				State: optimizer.StateFailed,
				Err:   errors.New("generator unreachable"),
			},
			wantState: "failed",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := NewRun(t.TempDir(), time.Now())
			if err != nil {
				t.Fatalf("NewRun() error = %v", err)
			}
			defer run.Close()

			if err := run.WriteReport(tt.state); err != nil {
				t.Fatalf("WriteReport() error = %v", err)
			}

			data, err := os.ReadFile(filepath.Join(run.Dir(), ReportFile))
			if err != nil {
				t.Fatalf("reading report: %v", err)
			}

			var report Report
			if err := json.Unmarshal(data, &report); err != nil {
				t.Fatalf("decoding report: %v", err)
			}

			if report.State != tt.wantState {
				t.Errorf("State = %q, want %q", report.State, tt.wantState)
			}
			if report.BestScore != tt.wantBest {
				t.Errorf("BestScore = %v, want %v", report.BestScore, tt.wantBest)
			}
			if (report.Error != "") != tt.wantError {
				t.Errorf("Error = %q, wantError %v", report.Error, tt.wantError)
			}
			if report.Finished.Before(report.Started) {
				t.Error("Finished precedes Started")
			}
		})
	}
}
