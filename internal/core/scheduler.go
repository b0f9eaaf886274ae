package core

import (
	"fmt"
	"sort"

	"github.com/drover-cli/drover/pkg/models"
)

// Decision is the outcome of a scheduling pass.
type Decision int

const (
	// DecisionRun means an eligible task was found.
	DecisionRun Decision = iota
	// DecisionComplete means every task is completed.
	DecisionComplete
	// DecisionBlocked means pending tasks remain but none are eligible:
	// their dependency chains contain cycles or unresolvable ids.
	DecisionBlocked
)

// ScheduleResult carries the decision plus the selected task or, when
// blocked, the ids of the stuck tasks for diagnostics.
type ScheduleResult struct {
	Decision Decision
	Task     *models.Task
	Stuck    []string
}

// SelectNext returns the single next eligible task, or nil when none exists.
// Phases are visited in ascending priority (declaration order breaks ties),
// tasks within a phase likewise. A task is eligible when it is pending and
// every dependency id resolves to a completed task; an id that resolves to
// nothing counts as unmet, never as satisfied.
func SelectNext(p *models.Project) *models.Task {
	index := p.TaskIndex()

	for _, phase := range orderedPhases(p) {
		for _, task := range orderedTasks(phase) {
			if task.Status != models.StatusPending {
				continue
			}
			if dependenciesMet(task, index) {
				return task
			}
		}
	}
	return nil
}

// Evaluate runs a scheduling pass and classifies the result so the loop can
// distinguish "genuinely done" from "stuck with work remaining".
func Evaluate(p *models.Project) ScheduleResult {
	if task := SelectNext(p); task != nil {
		return ScheduleResult{Decision: DecisionRun, Task: task}
	}

	// Anything not completed or deliberately skipped keeps the project from
	// being declared done: pending tasks with unmet deps, and tasks the agent
	// reported blocked or that exhausted their retries.
	var stuck []string
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			t := &p.Phases[i].Tasks[j]
			if t.Status != models.StatusCompleted && t.Status != models.StatusSkipped {
				stuck = append(stuck, t.ID)
			}
		}
	}
	if len(stuck) > 0 {
		return ScheduleResult{Decision: DecisionBlocked, Stuck: stuck}
	}
	return ScheduleResult{Decision: DecisionComplete}
}

// ValidateGraph rejects malformed task graphs before any run starts:
// duplicate task ids and self-dependencies. Dangling dependency ids are not
// rejected here; the scheduler treats them as unmet and the loop reports
// Blocked, which preserves the fail-safe behavior for hand-edited plans.
func ValidateGraph(p *models.Project) error {
	seen := make(map[string]bool, p.TotalTasks())
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			t := &p.Phases[i].Tasks[j]
			if t.ID == "" {
				return fmt.Errorf("invalid task graph: task with empty id in phase %s", p.Phases[i].ID)
			}
			if seen[t.ID] {
				return fmt.Errorf("invalid task graph: duplicate task id %s", t.ID)
			}
			seen[t.ID] = true
			for _, dep := range t.Dependencies {
				if dep == t.ID {
					return fmt.Errorf("invalid task graph: task %s depends on itself", t.ID)
				}
			}
		}
	}
	return nil
}

func dependenciesMet(task *models.Task, index map[string]*models.Task) bool {
	for _, dep := range task.Dependencies {
		resolved, ok := index[dep]
		if !ok || resolved.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}

// orderedPhases returns phase pointers sorted by ascending priority with
// declaration order as the tie-break. Sorting copies of indices keeps the
// project tree untouched.
func orderedPhases(p *models.Project) []*models.Phase {
	phases := make([]*models.Phase, len(p.Phases))
	for i := range p.Phases {
		phases[i] = &p.Phases[i]
	}
	sort.SliceStable(phases, func(a, b int) bool {
		return phases[a].Priority < phases[b].Priority
	})
	return phases
}

func orderedTasks(phase *models.Phase) []*models.Task {
	tasks := make([]*models.Task, len(phase.Tasks))
	for i := range phase.Tasks {
		tasks[i] = &phase.Tasks[i]
	}
	sort.SliceStable(tasks, func(a, b int) bool {
		return tasks[a].Priority < tasks[b].Priority
	})
	return tasks
}
