package core

import (
	"time"

	"github.com/drover-cli/drover/pkg/models"
)

// MergeWithExisting reconciles a freshly parsed project tree against
// previously persisted state so that re-running input parsing never loses
// progress. The parsed tree wins on structure (names, descriptions,
// dependencies, source locators, phase membership); the existing state wins
// on execution bookkeeping (status, timestamps, attempts, last error,
// iteration number) matched by task id. Tasks new to the parsed input come
// in pending; tasks that vanished from the input are dropped with their
// history, since the source document is authoritative for structure.
// Iteration history and counters always carry over.
func MergeWithExisting(existing, parsed *models.Project, now time.Time) *models.Project {
	if existing == nil {
		return parsed
	}

	oldIndex := existing.TaskIndex()
	for i := range parsed.Phases {
		for j := range parsed.Phases[i].Tasks {
			fresh := &parsed.Phases[i].Tasks[j]
			old, ok := oldIndex[fresh.ID]
			if !ok {
				continue
			}
			// A checkbox already ticked in the source marks the task
			// completed at parse time; state that says more wins anyway.
			if fresh.Status == models.StatusPending || old.Status == models.StatusCompleted {
				fresh.Status = old.Status
			}
			fresh.StartedAt = old.StartedAt
			fresh.CompletedAt = old.CompletedAt
			fresh.Iteration = old.Iteration
			fresh.Attempts = old.Attempts
			fresh.LastError = old.LastError
		}
	}

	parsed.CreatedAt = existing.CreatedAt
	parsed.UpdatedAt = now
	parsed.CurrentIteration = existing.CurrentIteration
	parsed.Iterations = existing.Iterations
	if existing.Status == models.ProjectCompleted {
		parsed.Status = existing.Status
	}
	if parsed.SourceDescriptor == "" {
		parsed.SourceDescriptor = existing.SourceDescriptor
	}
	parsed.UpdateStatus()
	return parsed
}
