package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkCompleteFlipsOnlyTheStateChar(t *testing.T) {
	content := "# Plan\n\n- [ ] TASK-101: do it\n- [ ] TASK-102: later\n"
	path := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := MarkComplete(path, 3)
	if err != nil {
		t.Fatalf("marking: %v", err)
	}
	if result != SyncUpdated {
		t.Fatalf("expected SyncUpdated, got %v", result)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "# Plan\n\n- [x] TASK-101: do it\n- [ ] TASK-102: later\n"
	if string(after) != want {
		t.Fatalf("document mangled:\n%q\nwant:\n%q", after, want)
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(path, []byte("- [x] TASK-101: done\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := MarkComplete(path, 1)
	if err != nil {
		t.Fatalf("marking: %v", err)
	}
	if result != SyncAlreadyChecked {
		t.Fatalf("expected SyncAlreadyChecked, got %v", result)
	}
}

func TestMarkCompleteSkipsStaleLocator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.md")
	if err := os.WriteFile(path, []byte("just prose now\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		line int
	}{
		{"not a checkbox line", 1},
		{"line out of range", 99},
		{"zero line", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarkComplete(path, tt.line)
			if err != nil {
				t.Fatalf("marking: %v", err)
			}
			if result != SyncSkipped {
				t.Fatalf("expected SyncSkipped, got %v", result)
			}
		})
	}
}

func TestMarkCompleteMissingFileSkips(t *testing.T) {
	result, err := MarkComplete(filepath.Join(t.TempDir(), "gone.md"), 1)
	if err != nil {
		t.Fatalf("missing file should fail soft: %v", err)
	}
	if result != SyncSkipped {
		t.Fatalf("expected SyncSkipped, got %v", result)
	}
}

func TestCountCheckboxes(t *testing.T) {
	content := "- [ ] a\n- [x] b\n- [X] c\nprose\n  - [ ] indented\n"
	completed, total := CountCheckboxes(content)
	if total != 4 || completed != 2 {
		t.Fatalf("expected 2/4, got %d/%d", completed, total)
	}
}
