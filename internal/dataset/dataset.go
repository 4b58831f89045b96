// Package dataset loads diagnostic cases and their ground-truth labels
// from disk.
//
// A dataset is a pair of directories: an inputs directory with one
// <case>_exam_input.json file per case (opaque JSON payload describing
// the case) and a ground-truth directory with one <case>_gt.json file
// per case containing the expected label:
//
//	{"diagnosis": "bronchitis"}
//
// Case identifiers are derived from the file names. Loading is done
// once at startup; the returned values are never mutated afterwards.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	inputSuffix       = "_exam_input.json"
	groundTruthSuffix = "_gt.json"
)

// Common errors returned by the loader.
var (
	// ErrNoRecords indicates the inputs directory contained no case files
	ErrNoRecords = errors.New("dataset: no input records found")

	// ErrMalformedCase indicates a case file could not be read or parsed
	ErrMalformedCase = errors.New("dataset: malformed case file")

	// ErrEmptyLabel indicates a ground-truth file carried no diagnosis
	ErrEmptyLabel = errors.New("dataset: ground truth label is empty")
)

// Record is one diagnostic case: an identifier and an opaque input
// payload. Records are immutable once loaded.
type Record struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

// GroundTruth maps a record identifier to its correct diagnostic label.
type GroundTruth map[string]string

// groundTruthFile is the on-disk shape of a <case>_gt.json file.
type groundTruthFile struct {
	Diagnosis string `json:"diagnosis"`
}

// LoadRecords reads every <case>_exam_input.json file in dir and
// returns the records sorted by ID for deterministic iteration order.
func LoadRecords(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading inputs dir: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), inputSuffix) {
			continue
		}

		id := strings.TrimSuffix(e.Name(), inputSuffix)
		path := filepath.Join(dir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCase, path, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: %s: invalid JSON", ErrMalformedCase, path)
		}

		records = append(records, Record{ID: id, Input: json.RawMessage(data)})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, dir)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// LoadGroundTruth reads every <case>_gt.json file in dir. Labels are
// trimmed of surrounding whitespace but otherwise taken verbatim:
// scoring is exact and case-sensitive, so any normalization must
// already be present in the files.
func LoadGroundTruth(dir string) (GroundTruth, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading ground truth dir: %w", err)
	}

	gt := make(GroundTruth)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), groundTruthSuffix) {
			continue
		}

		id := strings.TrimSuffix(e.Name(), groundTruthSuffix)
		path := filepath.Join(dir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCase, path, err)
		}

		var f groundTruthFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedCase, path, err)
		}

		label := strings.TrimSpace(f.Diagnosis)
		if label == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyLabel, path)
		}

		gt[id] = label
	}

	return gt, nil
}

// Load reads both halves of a dataset.
func Load(inputsDir, groundTruthDir string) ([]Record, GroundTruth, error) {
	records, err := LoadRecords(inputsDir)
	if err != nil {
		return nil, nil, err
	}

	gt, err := LoadGroundTruth(groundTruthDir)
	if err != nil {
		return nil, nil, err
	}

	return records, gt, nil
}
