package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
	StatusFailed     TaskStatus = "failed"
	StatusSkipped    TaskStatus = "skipped"
)

// ValidTaskStatuses is the set of allowed TaskStatus values.
var ValidTaskStatuses = map[TaskStatus]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
	StatusFailed:     true,
	StatusSkipped:    true,
}

// Task is the atomic unit of work. IDs follow the `<PREFIX>-<phase><seq>`
// convention (e.g. TASK-101) and must be unique across the whole project.
// Dependencies reference other tasks by id; they are non-owning
// back-references resolved through a lookup table at scheduling time.
type Task struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description,omitempty"`
	Status       TaskStatus `yaml:"status"`
	Priority     int        `yaml:"priority"`
	Dependencies []string   `yaml:"dependencies,omitempty"`
	PhaseID      string     `yaml:"phase_id"`
	StartedAt    *time.Time `yaml:"started_at,omitempty"`
	CompletedAt  *time.Time `yaml:"completed_at,omitempty"`
	Iteration    int        `yaml:"iteration,omitempty"`
	Attempts     int        `yaml:"attempts,omitempty"`
	LastError    string     `yaml:"last_error,omitempty"`
	SourceFile   string     `yaml:"source_file,omitempty"`
	SourceLine   int        `yaml:"source_line,omitempty"`
}

// MarkStarted transitions the task to in_progress and stamps started_at on
// the first transition only, so retries preserve the original start time.
func (t *Task) MarkStarted(now time.Time, iteration int) {
	t.Status = StatusInProgress
	t.Iteration = iteration
	if t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
}

// MarkCompleted transitions the task to completed. completed_at never
// precedes started_at.
func (t *Task) MarkCompleted(now time.Time, iteration int) {
	t.Status = StatusCompleted
	t.Iteration = iteration
	completed := now
	if t.StartedAt != nil && completed.Before(*t.StartedAt) {
		completed = *t.StartedAt
	}
	t.CompletedAt = &completed
}

// MarkFailed records a terminal failure with the last error message.
func (t *Task) MarkFailed(reason string) {
	t.Status = StatusFailed
	t.LastError = reason
}

// MarkBlocked records that the agent reported the task as blocked.
func (t *Task) MarkBlocked(reason string) {
	t.Status = StatusBlocked
	t.LastError = reason
}
