package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bimmerbailey/promptune/internal/results"
)

// Helper function to create a temporary iteration log
func createTempLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), results.IterationsFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

// Helper function to collect decoded lines (thread-safe)
func collectingOutputFunc() (func(results.IterationLine) error, func() []results.IterationLine) {
	var mu sync.Mutex
	var lines []results.IterationLine

	outputFunc := func(line results.IterationLine) error {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		return nil
	}

	getLines := func() []results.IterationLine {
		mu.Lock()
		defer mu.Unlock()
		result := make([]results.IterationLine, len(lines))
		copy(result, lines)
		return result
	}

	return outputFunc, getLines
}

func TestFollower_ReplayWithoutFollow(t *testing.T) {
	path := createTempLog(t, `{"iteration": 0, "score": 0.5, "prompt_chars": 120, "time": "2026-08-30T12:00:00Z"}
{"iteration": 1, "score": 0.75, "prompt_chars": 130, "time": "2026-08-30T12:01:00Z"}
`)

	outputFunc, getLines := collectingOutputFunc()
	follower := New(Options{FilePath: path, Follow: false, OutputFunc: outputFunc})

	if err := follower.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := getLines()
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Iteration != 0 || lines[0].Score != 0.5 {
		t.Errorf("lines[0] = %+v, want iteration 0 score 0.5", lines[0])
	}
	if lines[1].Iteration != 1 || lines[1].PromptChars != 130 {
		t.Errorf("lines[1] = %+v, want iteration 1 with 130 chars", lines[1])
	}
}

func TestFollower_SkipsNonRecordLines(t *testing.T) {
	path := createTempLog(t, `not json at all
{"iteration": 0, "score": 1.0, "prompt_chars": 100, "time": "2026-08-30T12:00:00Z"}

`)

	outputFunc, getLines := collectingOutputFunc()
	follower := New(Options{FilePath: path, OutputFunc: outputFunc})

	if err := follower.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := getLines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Score != 1.0 {
		t.Errorf("lines[0].Score = %v, want 1.0", lines[0].Score)
	}
}

func TestFollower_MissingFile(t *testing.T) {
	outputFunc, _ := collectingOutputFunc()
	follower := New(Options{
		FilePath:   filepath.Join(t.TempDir(), "nope.log"),
		OutputFunc: outputFunc,
	})

	if err := follower.Run(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFollower_FollowPicksUpAppends(t *testing.T) {
	path := createTempLog(t, `{"iteration": 0, "score": 0.5, "prompt_chars": 100, "time": "2026-08-30T12:00:00Z"}
`)

	outputFunc, getLines := collectingOutputFunc()
	follower := New(Options{FilePath: path, Follow: true, OutputFunc: outputFunc})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- follower.Run(ctx)
	}()

	// Wait for the replay to finish before appending.
	waitFor(t, func() bool { return len(getLines()) == 1 })

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("opening log for append: %v", err)
	}
	if _, err := fh.WriteString(`{"iteration": 1, "score": 0.75, "prompt_chars": 110, "time": "2026-08-30T12:01:00Z"}` + "\n"); err != nil {
		t.Fatalf("appending line: %v", err)
	}
	fh.Close()

	waitFor(t, func() bool { return len(getLines()) == 2 })
	cancel()
	if err := <-errChan; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := getLines()
	if lines[1].Iteration != 1 || lines[1].Score != 0.75 {
		t.Errorf("lines[1] = %+v, want iteration 1 score 0.75", lines[1])
	}
}

func TestFollower_PartialLineNotEmitted(t *testing.T) {
	path := createTempLog(t, `{"iteration": 0, "score": 0.5, "prompt_chars": 100, "time": "2026-08-30T12:00:00Z"}
{"iteration": 1, "score":`)

	outputFunc, getLines := collectingOutputFunc()
	follower := New(Options{FilePath: path, OutputFunc: outputFunc})

	if err := follower.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The unterminated line stays pending until its newline arrives.
	if lines := getLines(); len(lines) != 1 {
		t.Errorf("len(lines) = %d, want 1", len(lines))
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
