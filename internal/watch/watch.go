// Package watch follows a run's iteration log as it is written.
//
// It implements "tail -f" like behaviour over the JSON-lines
// iterations.log file produced by internal/results, decoding each
// appended line into a results.IterationLine and handing it to the
// caller. This lets `promptune monitor` observe an optimization run
// driven by another process.
package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bimmerbailey/promptune/internal/results"
)

// Options configures the follower behavior.
type Options struct {
	FilePath   string                            // Path to the iterations.log file
	Follow     bool                              // Whether to keep following for new lines
	OutputFunc func(results.IterationLine) error // Called for each decoded line
}

// Follower tails an iteration log with live decoding.
type Follower struct {
	opts    Options
	file    *os.File
	offset  int64
	watcher *fsnotify.Watcher
}

// New creates a new Follower with the given options.
func New(opts Options) *Follower {
	return &Follower{opts: opts}
}

// Run starts following. It first replays every line already in the
// file, then (when Follow is set) blocks until the context is cancelled
// or an error occurs, emitting lines as they are appended.
func (f *Follower) Run(ctx context.Context) error {
	if err := f.openFile(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.close()

	if err := f.readNewContent(); err != nil {
		return fmt.Errorf("failed to read existing lines: %w", err)
	}

	if !f.opts.Follow {
		return nil
	}

	if err := f.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer f.watcher.Close()

	return f.watch(ctx)
}

func (f *Follower) openFile() error {
	fh, err := os.Open(f.opts.FilePath)
	if err != nil {
		return err
	}
	f.file = fh
	f.offset = 0
	return nil
}

// setupWatcher initializes the fsnotify watcher.
func (f *Follower) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	f.watcher = watcher

	if err := watcher.Add(f.opts.FilePath); err != nil {
		return err
	}

	return nil
}

// watch blocks on file system events until the context ends.
func (f *Follower) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			if err := f.handleEvent(event); err != nil {
				return err
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (f *Follower) handleEvent(event fsnotify.Event) error {
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		return f.readNewContent()

	case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
		// The run directory is being cleaned up; nothing more to follow.
		fmt.Fprintf(os.Stderr, "\nIteration log removed. Exiting.\n")
		return fmt.Errorf("iteration log removed")

	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		return nil
	}

	return nil
}

// readNewContent reads from the last known offset, decoding and
// emitting every complete line found. The offset only advances past
// newline-terminated lines, so a partially-flushed line is re-read
// whole on the next write event.
func (f *Follower) readNewContent() error {
	// A shrunken file means the log was truncated; start over.
	stat, err := f.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < f.offset {
		f.offset = 0
	}

	if _, err := f.file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(f.file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		f.offset += int64(len(line))

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var rec results.IterationLine
		if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
			// Not an iteration record; skip it.
			continue
		}

		if err := f.opts.OutputFunc(rec); err != nil {
			return err
		}
	}
}

// close releases all resources.
func (f *Follower) close() {
	if f.file != nil {
		f.file.Close()
	}
	if f.watcher != nil {
		f.watcher.Close()
	}
}
