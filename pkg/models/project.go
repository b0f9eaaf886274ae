package models

import "time"

// ProjectStatus mirrors the phase aggregation at the project level.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectBlocked    ProjectStatus = "blocked"
)

// Project is the full backlog tree for one input source. It owns its phases
// exclusively; phases own their tasks. Iterations are append-only history.
type Project struct {
	Name             string        `yaml:"name"`
	SourceDescriptor string        `yaml:"source_descriptor,omitempty"`
	SourceFiles      []string      `yaml:"source_files,omitempty"`
	Status           ProjectStatus `yaml:"status"`
	CreatedAt        time.Time     `yaml:"created_at"`
	UpdatedAt        time.Time     `yaml:"updated_at"`
	CurrentIteration int           `yaml:"current_iteration"`
	Phases           []Phase       `yaml:"phases"`
	Iterations       []Iteration   `yaml:"iterations,omitempty"`
}

// TotalTasks counts all tasks across all phases.
func (p *Project) TotalTasks() int {
	n := 0
	for i := range p.Phases {
		n += len(p.Phases[i].Tasks)
	}
	return n
}

// CompletedTasks counts tasks with status completed across all phases.
func (p *Project) CompletedTasks() int {
	n := 0
	for i := range p.Phases {
		n += p.Phases[i].CompletedTasks()
	}
	return n
}

// Progress returns the completion ratio in [0, 1]. Empty projects report 0.
func (p *Project) Progress() float64 {
	total := p.TotalTasks()
	if total == 0 {
		return 0
	}
	return float64(p.CompletedTasks()) / float64(total)
}

// IsComplete reports whether every task in the project is completed, or the
// project was explicitly marked completed by the agent.
func (p *Project) IsComplete() bool {
	if p.Status == ProjectCompleted {
		return true
	}
	total := p.TotalTasks()
	return total > 0 && p.CompletedTasks() == total
}

// TaskByID returns a pointer into the owning phase's task slice, or nil if
// the id is unknown. The pointer stays valid until phases are restructured.
func (p *Project) TaskByID(id string) *Task {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].ID == id {
				return &p.Phases[i].Tasks[j]
			}
		}
	}
	return nil
}

// TaskIndex builds a fresh id -> task lookup table from the tree. Callers
// rebuild it on every scheduling pass rather than caching it, which keeps
// dependency references non-owning.
func (p *Project) TaskIndex() map[string]*Task {
	index := make(map[string]*Task, p.TotalTasks())
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			t := &p.Phases[i].Tasks[j]
			index[t.ID] = t
		}
	}
	return index
}

// UpdateStatus recomputes the stored project status from phase aggregation.
// An explicit completed status (agent-reported terminal condition) is sticky.
func (p *Project) UpdateStatus() {
	if p.Status == ProjectCompleted {
		return
	}
	total := p.TotalTasks()
	if total == 0 {
		p.Status = ProjectPending
		return
	}
	if p.CompletedTasks() == total {
		p.Status = ProjectCompleted
		return
	}
	for i := range p.Phases {
		if p.Phases[i].DerivedStatus() != StatusPending {
			p.Status = ProjectInProgress
			return
		}
	}
	p.Status = ProjectPending
}

// CurrentTaskID returns the id of the first in_progress task, or empty.
func (p *Project) CurrentTaskID() string {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].Status == StatusInProgress {
				return p.Phases[i].Tasks[j].ID
			}
		}
	}
	return ""
}

// AddIteration appends an iteration record and bumps the counter.
func (p *Project) AddIteration(it Iteration) {
	p.Iterations = append(p.Iterations, it)
	if it.Number > p.CurrentIteration {
		p.CurrentIteration = it.Number
	}
}

// Summary is the lightweight status document consumed by the reporting layer.
type Summary struct {
	Name             string        `yaml:"name"`
	Status           ProjectStatus `yaml:"status"`
	SourceDescriptor string        `yaml:"source_descriptor,omitempty"`
	TotalTasks       int           `yaml:"total_tasks"`
	CompletedTasks   int           `yaml:"completed_tasks"`
	Progress         float64       `yaml:"progress"`
	CurrentTask      string        `yaml:"current_task,omitempty"`
	Iterations       int           `yaml:"iterations"`
	UpdatedAt        time.Time     `yaml:"updated_at"`
}

// Summarize derives the status summary from the full tree.
func (p *Project) Summarize() Summary {
	return Summary{
		Name:             p.Name,
		Status:           p.Status,
		SourceDescriptor: p.SourceDescriptor,
		TotalTasks:       p.TotalTasks(),
		CompletedTasks:   p.CompletedTasks(),
		Progress:         p.Progress(),
		CurrentTask:      p.CurrentTaskID(),
		Iterations:       p.CurrentIteration,
		UpdatedAt:        p.UpdatedAt,
	}
}
