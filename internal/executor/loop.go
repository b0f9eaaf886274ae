package executor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/observability"
	"github.com/drover-cli/drover/internal/parser"
	"github.com/drover-cli/drover/internal/storage"
	"github.com/drover-cli/drover/pkg/models"
)

// LoopStatus is the terminal state of an orchestration run.
type LoopStatus int

const (
	// LoopCompleted means every task finished (or the agent declared the
	// project done).
	LoopCompleted LoopStatus = iota
	// LoopBlocked means uncompleted tasks remain but none are eligible:
	// dependency cycles, unresolvable ids, or agent-reported blockers.
	LoopBlocked
	// LoopMaxIterations means the iteration cap was reached with work
	// remaining. Rerunning resumes from the persisted state.
	LoopMaxIterations
	// LoopInterrupted means the run was cancelled; state was persisted and
	// the project is resumable.
	LoopInterrupted
	// LoopTaskFailed means a task exhausted its retries: either the
	// configuration asks to stop on failure, or no runnable work remained
	// once the failures were accounted for.
	LoopTaskFailed
)

// TaskCommitter commits workspace changes attributed to a completed task.
type TaskCommitter interface {
	CommitTask(task *models.Task, prefix string) error
}

// Orchestrator composes the scheduler, the execution supervisor, the state
// store, and the source synchronizer into the iteration loop. It is the only
// component that persists; everything it calls returns values.
type Orchestrator struct {
	Store    storage.StateStore
	Identity string
	Runner   IterationRunner
	Cfg      *core.Config
	// Events is optional; a nil log disables event recording.
	Events observability.EventLog
	// Committer is optional; nil disables commit automation.
	Committer TaskCommitter
	// SyncSource flips the source checkbox for a completed task. Nil
	// defaults to parser.MarkComplete.
	SyncSource func(file string, line int) (parser.SyncResult, error)
	// Out receives human-readable progress lines. Nil discards them.
	Out io.Writer
}

// Run drives the loop to a terminal state: all tasks complete, blocked,
// iteration cap, fatal error, or cancellation. The project is persisted
// after every state change, so an interrupt at any point leaves it
// resumable.
func (o *Orchestrator) Run(ctx context.Context, project *models.Project) (LoopStatus, error) {
	if err := core.ValidateGraph(project); err != nil {
		return LoopBlocked, err
	}

	start := project.CurrentIteration + 1
	for iteration := start; iteration < start+o.Cfg.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			return o.interrupted(project)
		}

		result := core.Evaluate(project)
		switch result.Decision {
		case core.DecisionComplete:
			project.Status = models.ProjectCompleted
			if err := o.save(project); err != nil {
				return LoopCompleted, err
			}
			o.logEvent(observability.EventProjectCompleted, "INFO", map[string]any{"iteration": project.CurrentIteration})
			o.printf("All tasks completed.")
			return LoopCompleted, nil

		case core.DecisionBlocked:
			if err := o.save(project); err != nil {
				return LoopBlocked, err
			}
			return o.reportStuck(project, result.Stuck), nil
		}

		task := result.Task
		status, done, err := o.runOne(ctx, project, task, iteration)
		if done || err != nil {
			return status, err
		}

		if o.Cfg.SleepBetween > 0 {
			select {
			case <-time.After(o.Cfg.SleepBetween):
			case <-ctx.Done():
				return o.interrupted(project)
			}
		}
	}

	if err := o.save(project); err != nil {
		return LoopMaxIterations, err
	}
	o.printf("Iteration cap reached with %d of %d tasks completed.", project.CompletedTasks(), project.TotalTasks())
	return LoopMaxIterations, nil
}

// reportStuck classifies a stuck set by cause. Failed tasks mean the agent
// exhausted its retries somewhere, which is a different terminal state than
// tasks waiting on dependencies or agent-reported blockers.
func (o *Orchestrator) reportStuck(project *models.Project, stuck []string) LoopStatus {
	var failed, waiting []string
	for _, id := range stuck {
		if t := project.TaskByID(id); t != nil && t.Status == models.StatusFailed {
			failed = append(failed, id)
		} else {
			waiting = append(waiting, id)
		}
	}

	if len(failed) > 0 {
		o.logEvent(observability.EventLoopBlocked, "ERROR", map[string]any{"failed": failed, "stuck": waiting})
		o.printf("Stopped: %d task(s) failed after exhausting retries: %v", len(failed), failed)
		if len(waiting) > 0 {
			o.printf("%d task(s) remain blocked or waiting on them: %v", len(waiting), waiting)
		}
		return LoopTaskFailed
	}

	o.logEvent(observability.EventLoopBlocked, "WARN", map[string]any{"stuck": waiting})
	o.printf("Blocked: %d task(s) remain with unmet dependencies or agent-reported blockers: %v", len(waiting), waiting)
	return LoopBlocked
}

// runOne executes a single iteration for the selected task and applies the
// classified result. done is true when the loop should stop with status.
func (o *Orchestrator) runOne(ctx context.Context, project *models.Project, task *models.Task, iteration int) (status LoopStatus, done bool, err error) {
	now := time.Now().UTC()
	task.MarkStarted(now, iteration)
	project.AddIteration(models.Iteration{Number: iteration, StartedAt: now})
	project.UpdateStatus()
	if err := o.save(project); err != nil {
		return LoopTaskFailed, true, err
	}
	o.logEvent(observability.EventIterationStarted, "INFO", map[string]any{"iteration": iteration, "task": task.ID, "attempt": task.Attempts + 1})
	o.printf("Iteration %d: %s (%s)", iteration, task.Name, task.ID)

	itResult, runErr := o.Runner.RunIteration(ctx, project, task, iteration)
	if ctx.Err() != nil {
		// No partial completion is ever recorded: the task returns to
		// pending with its attempt count preserved.
		task.Status = models.StatusPending
		o.endIteration(project, iteration, itResult, models.OutcomeFailure)
		st, e := o.interrupted(project)
		return st, true, e
	}
	if runErr != nil {
		task.Status = models.StatusPending
		o.endIteration(project, iteration, itResult, models.OutcomeFailure)
		if saveErr := o.save(project); saveErr != nil {
			return LoopTaskFailed, true, saveErr
		}
		return LoopTaskFailed, true, fmt.Errorf("running agent for task %s (attempt %d): %w", task.ID, task.Attempts, runErr)
	}

	outcome := o.applyResult(project, task, iteration, itResult)
	o.endIteration(project, iteration, itResult, outcome)
	project.UpdateStatus()
	if err := o.save(project); err != nil {
		return LoopTaskFailed, true, err
	}

	if project.Status == models.ProjectCompleted {
		o.logEvent(observability.EventProjectCompleted, "INFO", map[string]any{"iteration": iteration})
		o.printf("All tasks completed.")
		return LoopCompleted, true, nil
	}
	if task.Status == models.StatusFailed && o.Cfg.StopOnFailure {
		return LoopTaskFailed, true, fmt.Errorf("task %s failed after %d attempts: %s", task.ID, task.Attempts, task.LastError)
	}
	return 0, false, nil
}

// applyResult maps a classified iteration result onto the project tree.
func (o *Orchestrator) applyResult(project *models.Project, task *models.Task, iteration int, result *IterationResult) models.IterationOutcome {
	now := time.Now().UTC()

	switch result.Classification.Kind {
	case TaskCompleted:
		completed := task
		if result.Classification.TaskID != task.ID {
			other := project.TaskByID(result.Classification.TaskID)
			if other == nil {
				o.printf("Warning: agent reported completion of unknown task %s; %s stays pending", result.Classification.TaskID, task.ID)
				task.Status = models.StatusPending
				return models.OutcomeFailure
			}
			o.printf("Warning: agent completed %s instead of dispatched %s", other.ID, task.ID)
			task.Status = models.StatusPending
			completed = other
		}
		completed.MarkCompleted(now, iteration)
		o.recordCompleted(project, iteration, completed.ID)
		o.logEvent(observability.EventTaskCompleted, "INFO", map[string]any{"task": completed.ID, "iteration": iteration})
		o.syncSource(completed)
		o.commit(completed)
		return models.OutcomeSuccess

	case AllComplete:
		if project.CompletedTasks() != project.TotalTasks() {
			o.printf("Warning: agent declared the project complete with %d of %d tasks recorded done",
				project.CompletedTasks(), project.TotalTasks())
		}
		if task.Status == models.StatusInProgress {
			task.MarkCompleted(now, iteration)
			o.recordCompleted(project, iteration, task.ID)
			o.syncSource(task)
			o.commit(task)
		}
		project.Status = models.ProjectCompleted
		return models.OutcomeSuccess

	case TaskBlocked:
		task.MarkBlocked(result.Classification.Reason)
		o.logEvent(observability.EventTaskBlocked, "WARN", map[string]any{"task": task.ID, "reason": result.Classification.Reason})
		o.printf("Task %s blocked: %s", task.ID, result.Classification.Reason)
		return models.OutcomeFailure

	case TaskFailed:
		task.MarkFailed(result.Classification.Reason)
		o.logEvent(observability.EventTaskFailed, "ERROR", map[string]any{"task": task.ID, "reason": result.Classification.Reason, "attempts": task.Attempts})
		o.printf("Task %s failed: %s", task.ID, result.Classification.Reason)
		return models.OutcomeFailure

	default: // NoMarker
		if result.Exhausted {
			task.MarkFailed(result.LastError)
			o.logEvent(observability.EventTaskFailed, "ERROR", map[string]any{"task": task.ID, "reason": result.LastError, "attempts": task.Attempts})
			o.printf("Task %s failed after %d attempts: %s", task.ID, task.Attempts, result.LastError)
		} else {
			// Ambiguous clean exit: no completion recorded, task stays
			// eligible. Bounded by the iteration cap.
			task.Status = models.StatusPending
			o.printf("No completion marker for %s; transcript tail:\n%s", task.ID, result.TranscriptTail)
		}
		return result.Outcome
	}
}

func (o *Orchestrator) recordCompleted(project *models.Project, iteration int, taskID string) {
	for i := range project.Iterations {
		if project.Iterations[i].Number == iteration {
			project.Iterations[i].TasksCompleted = append(project.Iterations[i].TasksCompleted, taskID)
			return
		}
	}
}

func (o *Orchestrator) endIteration(project *models.Project, iteration int, result *IterationResult, outcome models.IterationOutcome) {
	now := time.Now().UTC()
	for i := range project.Iterations {
		if project.Iterations[i].Number != iteration {
			continue
		}
		it := &project.Iterations[i]
		it.EndedAt = &now
		it.Outcome = outcome
		if result != nil {
			it.TranscriptTail = result.TranscriptTail
		}
		break
	}
	data := map[string]any{"iteration": iteration, "outcome": string(outcome)}
	o.logEvent(observability.EventIterationEnded, "INFO", data)
}

// syncSource flips the originating checkbox for a completed task. A stale
// locator is logged and skipped, never fatal.
func (o *Orchestrator) syncSource(task *models.Task) {
	if !o.Cfg.UpdateSource || task.SourceFile == "" || task.SourceLine == 0 {
		return
	}
	sync := o.SyncSource
	if sync == nil {
		sync = parser.MarkComplete
	}
	result, err := sync(task.SourceFile, task.SourceLine)
	if err != nil {
		o.printf("Warning: could not update %s:%d: %v", task.SourceFile, task.SourceLine, err)
	}
	if result == parser.SyncSkipped {
		o.logEvent(observability.EventSyncSkipped, "WARN", map[string]any{"task": task.ID, "file": task.SourceFile, "line": task.SourceLine})
		o.printf("Warning: source checkbox for %s not found at %s:%d; skipped", task.ID, task.SourceFile, task.SourceLine)
	}
}

func (o *Orchestrator) commit(task *models.Task) {
	if o.Committer == nil || !o.Cfg.AutoCommit {
		return
	}
	if err := o.Committer.CommitTask(task, o.Cfg.CommitPrefix); err != nil {
		o.printf("Warning: auto-commit for %s failed: %v", task.ID, err)
	}
}

func (o *Orchestrator) interrupted(project *models.Project) (LoopStatus, error) {
	if err := o.save(project); err != nil {
		return LoopInterrupted, err
	}
	o.printf("Interrupted; state saved, rerun to resume.")
	return LoopInterrupted, nil
}

func (o *Orchestrator) save(project *models.Project) error {
	if err := o.Store.Save(o.Identity, project); err != nil {
		return fmt.Errorf("persisting project %s: %w", o.Identity, err)
	}
	return nil
}

func (o *Orchestrator) logEvent(eventType, level string, data map[string]any) {
	if o.Events == nil {
		return
	}
	_ = o.Events.Write(observability.Event{
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

func (o *Orchestrator) printf(format string, args ...any) {
	if o.Out == nil {
		return
	}
	fmt.Fprintf(o.Out, format+"\n", args...)
}
