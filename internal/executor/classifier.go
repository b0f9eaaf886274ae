package executor

import (
	"regexp"
	"strings"
)

// Structured output markers the agent is instructed to emit. Markers are
// advisory: the producer is a non-deterministic external agent, so the
// classifier is lenient and never errors on malformed input.
const (
	MarkerTaskComplete = "DROVER_TASK_COMPLETE:"
	MarkerTaskBlocked  = "DROVER_TASK_BLOCKED:"
	MarkerTaskFailed   = "DROVER_TASK_FAILED:"
	MarkerAllComplete  = "DROVER_ALL_COMPLETE"
)

// MarkerKind tags the classification variants.
type MarkerKind int

const (
	// NoMarker means the transcript carried no recognizable marker; the
	// caller decides on process exit code alone.
	NoMarker MarkerKind = iota
	// TaskCompleted means a completion marker named a task id.
	TaskCompleted
	// TaskBlocked means the agent reported the task as blocked.
	TaskBlocked
	// TaskFailed means the agent reported the task as failed.
	TaskFailed
	// AllComplete means the agent declared the whole project finished.
	AllComplete
)

// Classification is the tagged result of scanning a transcript. Every input
// maps to exactly one variant, keeping the supervisor's state machine total.
type Classification struct {
	Kind   MarkerKind
	TaskID string
	Reason string
}

var markerIDPattern = regexp.MustCompile(`^([A-Za-z0-9._/-]+)\s*(.*)$`)

// Classify scans an agent transcript for structured completion markers.
// The last marker wins when several appear, matching an agent that revises
// its own status as it works. Malformed markers downgrade to NoMarker.
func Classify(transcript string) Classification {
	result := Classification{Kind: NoMarker}
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, MarkerAllComplete):
			result = Classification{Kind: AllComplete}
		case strings.Contains(line, MarkerTaskComplete):
			if id, reason, ok := markerPayload(line, MarkerTaskComplete); ok {
				result = Classification{Kind: TaskCompleted, TaskID: id, Reason: reason}
			}
		case strings.Contains(line, MarkerTaskBlocked):
			if id, reason, ok := markerPayload(line, MarkerTaskBlocked); ok {
				result = Classification{Kind: TaskBlocked, TaskID: id, Reason: reason}
			}
		case strings.Contains(line, MarkerTaskFailed):
			if id, reason, ok := markerPayload(line, MarkerTaskFailed); ok {
				result = Classification{Kind: TaskFailed, TaskID: id, Reason: reason}
			}
		}
	}
	return result
}

// markerPayload extracts the task id and optional free-form reason that
// follow a marker token.
func markerPayload(line, marker string) (id, reason string, ok bool) {
	idx := strings.Index(line, marker)
	rest := strings.TrimSpace(line[idx+len(marker):])
	m := markerIDPattern.FindStringSubmatch(rest)
	if m == nil || m[1] == "" {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// TranscriptTail returns the last n characters of a transcript for
// diagnostics, cut at a line boundary where possible.
func TranscriptTail(transcript string, n int) string {
	if len(transcript) <= n {
		return transcript
	}
	tail := transcript[len(transcript)-n:]
	if idx := strings.IndexByte(tail, '\n'); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
