package models

import (
	"testing"
	"time"
)

func TestMarkStartedPreservesFirstStart(t *testing.T) {
	task := Task{ID: "TASK-101", Status: StatusPending}

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	task.MarkStarted(first, 1)

	if task.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", task.Status)
	}
	if task.StartedAt == nil || !task.StartedAt.Equal(first) {
		t.Fatalf("expected started_at %v, got %v", first, task.StartedAt)
	}

	// A retry re-enters MarkStarted; the original start time survives.
	later := first.Add(time.Hour)
	task.MarkStarted(later, 2)
	if !task.StartedAt.Equal(first) {
		t.Fatalf("retry overwrote started_at: %v", task.StartedAt)
	}
	if task.Iteration != 2 {
		t.Fatalf("expected iteration 2, got %d", task.Iteration)
	}
}

func TestMarkCompletedNeverPrecedesStart(t *testing.T) {
	task := Task{ID: "TASK-101"}
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	task.MarkStarted(start, 1)

	// Clock skew: completion timestamp before the start timestamp.
	task.MarkCompleted(start.Add(-time.Minute), 1)
	if task.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", task.Status)
	}
	if task.CompletedAt.Before(*task.StartedAt) {
		t.Fatalf("completed_at %v precedes started_at %v", task.CompletedAt, task.StartedAt)
	}
}

func TestMarkFailedAndBlockedRecordReason(t *testing.T) {
	var task Task
	task.MarkFailed("agent timed out")
	if task.Status != StatusFailed || task.LastError != "agent timed out" {
		t.Fatalf("unexpected failed state: %s %q", task.Status, task.LastError)
	}

	task = Task{}
	task.MarkBlocked("missing credentials")
	if task.Status != StatusBlocked || task.LastError != "missing credentials" {
		t.Fatalf("unexpected blocked state: %s %q", task.Status, task.LastError)
	}
}

func TestPhaseDerivedStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []TaskStatus
		want     TaskStatus
	}{
		{"empty", nil, StatusPending},
		{"all pending", []TaskStatus{StatusPending, StatusPending}, StatusPending},
		{"all completed", []TaskStatus{StatusCompleted, StatusCompleted}, StatusCompleted},
		{"mixed", []TaskStatus{StatusCompleted, StatusPending}, StatusInProgress},
		{"in progress", []TaskStatus{StatusInProgress, StatusPending}, StatusInProgress},
		{"failed counts as started", []TaskStatus{StatusFailed, StatusPending}, StatusInProgress},
		{"skipped counts toward completion", []TaskStatus{StatusCompleted, StatusSkipped}, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase := Phase{ID: "phase-1"}
			for i, s := range tt.statuses {
				phase.Tasks = append(phase.Tasks, Task{ID: string(rune('A' + i)), Status: s})
			}
			if got := phase.DerivedStatus(); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProjectStatusAggregation(t *testing.T) {
	p := &Project{
		Phases: []Phase{{
			ID: "phase-1",
			Tasks: []Task{
				{ID: "TASK-101", Status: StatusPending},
				{ID: "TASK-102", Status: StatusPending},
			},
		}},
	}

	p.UpdateStatus()
	if p.Status != ProjectPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}

	p.Phases[0].Tasks[0].Status = StatusCompleted
	p.UpdateStatus()
	if p.Status != ProjectInProgress {
		t.Fatalf("expected in_progress, got %s", p.Status)
	}

	p.Phases[0].Tasks[1].Status = StatusCompleted
	p.UpdateStatus()
	if p.Status != ProjectCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}

	// Completed is sticky even if a task is later reset by hand.
	p.Phases[0].Tasks[1].Status = StatusPending
	p.UpdateStatus()
	if p.Status != ProjectCompleted {
		t.Fatalf("completed status should be sticky, got %s", p.Status)
	}
}

func TestProjectProgressAndSummary(t *testing.T) {
	p := &Project{
		Name: "demo",
		Phases: []Phase{{
			ID: "phase-1",
			Tasks: []Task{
				{ID: "TASK-101", Status: StatusCompleted},
				{ID: "TASK-102", Status: StatusInProgress},
				{ID: "TASK-103", Status: StatusPending},
				{ID: "TASK-104", Status: StatusPending},
			},
		}},
		CurrentIteration: 7,
	}
	p.UpdateStatus()

	if got := p.Progress(); got != 0.25 {
		t.Fatalf("expected progress 0.25, got %v", got)
	}

	s := p.Summarize()
	if s.TotalTasks != 4 || s.CompletedTasks != 1 {
		t.Fatalf("unexpected summary counts: %+v", s)
	}
	if s.CurrentTask != "TASK-102" {
		t.Fatalf("expected current task TASK-102, got %s", s.CurrentTask)
	}
	if s.Iterations != 7 {
		t.Fatalf("expected 7 iterations, got %d", s.Iterations)
	}
}

func TestAddIterationBumpsCounter(t *testing.T) {
	p := &Project{}
	p.AddIteration(Iteration{Number: 1, StartedAt: time.Now()})
	p.AddIteration(Iteration{Number: 2, StartedAt: time.Now()})
	if p.CurrentIteration != 2 {
		t.Fatalf("expected current iteration 2, got %d", p.CurrentIteration)
	}
	if len(p.Iterations) != 2 {
		t.Fatalf("expected 2 iteration records, got %d", len(p.Iterations))
	}
}
