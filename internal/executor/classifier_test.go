package executor

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantKind   MarkerKind
		wantTaskID string
		wantReason string
	}{
		{
			"no marker",
			"just some output\nnothing structured here\n",
			NoMarker, "", "",
		},
		{
			"task complete",
			"working...\nDROVER_TASK_COMPLETE: TASK-101\n",
			TaskCompleted, "TASK-101", "",
		},
		{
			"task blocked with reason",
			"DROVER_TASK_BLOCKED: TASK-102 missing API credentials\n",
			TaskBlocked, "TASK-102", "missing API credentials",
		},
		{
			"task failed with reason",
			"DROVER_TASK_FAILED: TASK-103 tests will not pass\n",
			TaskFailed, "TASK-103", "tests will not pass",
		},
		{
			"all complete",
			"everything done\nDROVER_ALL_COMPLETE\n",
			AllComplete, "", "",
		},
		{
			"last marker wins",
			"DROVER_TASK_FAILED: TASK-101 first try\nfixed it\nDROVER_TASK_COMPLETE: TASK-101\n",
			TaskCompleted, "TASK-101", "",
		},
		{
			"marker embedded in a prose line",
			"the agent says DROVER_TASK_COMPLETE: TASK-104 and exits\n",
			TaskCompleted, "TASK-104", "and exits",
		},
		{
			"malformed marker downgrades to no marker",
			"DROVER_TASK_COMPLETE:\n",
			NoMarker, "", "",
		},
		{
			"surrounding whitespace tolerated",
			"   DROVER_TASK_COMPLETE: TASK-105   \n",
			TaskCompleted, "TASK-105", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.transcript)
			if got.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.TaskID != tt.wantTaskID {
				t.Fatalf("task id = %q, want %q", got.TaskID, tt.wantTaskID)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestTranscriptTail(t *testing.T) {
	short := "hello"
	if got := TranscriptTail(short, 100); got != short {
		t.Fatalf("short transcript should pass through, got %q", got)
	}

	long := strings.Repeat("line one\n", 100) + "final line"
	got := TranscriptTail(long, 50)
	if len(got) > 50 {
		t.Fatalf("tail exceeds limit: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "final line") {
		t.Fatalf("tail lost the end of the transcript: %q", got)
	}
	if strings.HasPrefix(got, "ne\n") {
		t.Fatalf("tail should cut at a line boundary: %q", got)
	}
}
