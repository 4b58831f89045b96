package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "case2_exam_input.json", `{"symptoms": "headache"}`)
	writeFile(t, dir, "case1_exam_input.json", `{"symptoms": "fever"}`)
	writeFile(t, dir, "notes.txt", "ignore me")
	writeFile(t, dir, "case3_gt.json", `{"diagnosis": "Flu"}`)

	records, err := LoadRecords(dir)
	if err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	// Sorted by ID regardless of directory order.
	if records[0].ID != "case1" || records[1].ID != "case2" {
		t.Errorf("record IDs = %q, %q, want case1, case2", records[0].ID, records[1].ID)
	}
	if string(records[0].Input) != `{"symptoms": "fever"}` {
		t.Errorf("records[0].Input = %s, want raw payload", records[0].Input)
	}
}

func TestLoadRecords_Errors(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := LoadRecords(t.TempDir())
		if !errors.Is(err, ErrNoRecords) {
			t.Errorf("error = %v, want ErrNoRecords", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadRecords(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("invalid JSON payload", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "case1_exam_input.json", `{"symptoms": `)

		_, err := LoadRecords(dir)
		if !errors.Is(err, ErrMalformedCase) {
			t.Errorf("error = %v, want ErrMalformedCase", err)
		}
	})
}

func TestLoadGroundTruth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "case1_gt.json", `{"diagnosis": "Flu"}`)
	writeFile(t, dir, "case2_gt.json", `{"diagnosis": "  Iron deficiency anemia  "}`)
	writeFile(t, dir, "case3_exam_input.json", `{"symptoms": "fever"}`)

	gt, err := LoadGroundTruth(dir)
	if err != nil {
		t.Fatalf("LoadGroundTruth() error = %v", err)
	}

	if len(gt) != 2 {
		t.Fatalf("len(gt) = %d, want 2", len(gt))
	}
	if gt["case1"] != "Flu" {
		t.Errorf("gt[case1] = %q, want %q", gt["case1"], "Flu")
	}
	// Whitespace is trimmed, casing preserved.
	if gt["case2"] != "Iron deficiency anemia" {
		t.Errorf("gt[case2] = %q, want trimmed label", gt["case2"])
	}
}

func TestLoadGroundTruth_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "empty label",
			content: `{"diagnosis": ""}`,
			wantErr: ErrEmptyLabel,
		},
		{
			name:    "whitespace label",
			content: `{"diagnosis": "   "}`,
			wantErr: ErrEmptyLabel,
		},
		{
			name:    "missing field",
			content: `{"answer": "Flu"}`,
			wantErr: ErrEmptyLabel,
		},
		{
			name:    "malformed JSON",
			content: `{"diagnosis": `,
			wantErr: ErrMalformedCase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "case1_gt.json", tt.content)

			_, err := LoadGroundTruth(dir)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	inputsDir := t.TempDir()
	gtDir := t.TempDir()
	writeFile(t, inputsDir, "case1_exam_input.json", `{"symptoms": "fever"}`)
	writeFile(t, gtDir, "case1_gt.json", `{"diagnosis": "Flu"}`)

	records, gt, err := Load(inputsDir, gtDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || len(gt) != 1 {
		t.Errorf("Load() = %d records, %d labels, want 1 and 1", len(records), len(gt))
	}
}
