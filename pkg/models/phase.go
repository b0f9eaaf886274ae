package models

// Phase is an ordered grouping of tasks within a project. A phase owns its
// tasks exclusively; its status is always derived from them, never stored.
type Phase struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Tasks    []Task `yaml:"tasks"`
}

// DerivedStatus aggregates child task statuses: pending if none started,
// completed iff all tasks are completed, in_progress otherwise.
func (p *Phase) DerivedStatus() TaskStatus {
	if len(p.Tasks) == 0 {
		return StatusPending
	}
	allCompleted := true
	anyStarted := false
	for i := range p.Tasks {
		switch p.Tasks[i].Status {
		case StatusCompleted, StatusSkipped:
			anyStarted = true
		case StatusPending:
			allCompleted = false
		default:
			allCompleted = false
			anyStarted = true
		}
	}
	if allCompleted {
		return StatusCompleted
	}
	if anyStarted {
		return StatusInProgress
	}
	return StatusPending
}

// CompletedTasks counts tasks in this phase with status completed.
func (p *Phase) CompletedTasks() int {
	n := 0
	for i := range p.Tasks {
		if p.Tasks[i].Status == StatusCompleted {
			n++
		}
	}
	return n
}
