package models

import "time"

// IterationOutcome classifies how an iteration ended.
type IterationOutcome string

const (
	OutcomeSuccess IterationOutcome = "success"
	OutcomeFailure IterationOutcome = "failure"
	OutcomeTimeout IterationOutcome = "timeout"
)

// Iteration records one cycle of selecting a task and running the agent
// against it. Records are append-only: once EndedAt is set the entry is
// never mutated again.
type Iteration struct {
	Number         int              `yaml:"number"`
	StartedAt      time.Time        `yaml:"started_at"`
	EndedAt        *time.Time       `yaml:"ended_at,omitempty"`
	TasksCompleted []string         `yaml:"tasks_completed,omitempty"`
	Outcome        IterationOutcome `yaml:"outcome,omitempty"`
	TranscriptTail string           `yaml:"transcript_tail,omitempty"`
}

// Duration returns the elapsed time of the iteration, or zero if it has not
// ended yet.
func (it *Iteration) Duration() time.Duration {
	if it.EndedAt == nil {
		return 0
	}
	return it.EndedAt.Sub(it.StartedAt)
}
