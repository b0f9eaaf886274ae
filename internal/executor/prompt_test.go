package executor

import (
	"strings"
	"testing"

	"github.com/drover-cli/drover/pkg/models"
)

func promptProject() *models.Project {
	return &models.Project{
		Name: "demo",
		Phases: []models.Phase{{
			ID: "phase-1",
			Tasks: []models.Task{
				{ID: "TASK-101", Name: "scaffold", Status: models.StatusCompleted},
				{ID: "TASK-102", Name: "wire the CLI", Description: "Add the cobra commands.", Status: models.StatusPending},
			},
		}},
	}
}

func TestBuildPromptCarriesTaskAndMarkers(t *testing.T) {
	p := promptProject()
	prompt := BuildPrompt(PromptContext{
		Project:      p,
		Task:         p.TaskByID("TASK-102"),
		Iteration:    4,
		Attempt:      1,
		MaxAttempts:  3,
		CommitPrefix: "feat:",
	})

	for _, want := range []string{
		"TASK-102",
		"wire the CLI",
		"Add the cobra commands.",
		"Tasks completed: 1 of 2",
		MarkerTaskComplete,
		MarkerTaskBlocked,
		MarkerTaskFailed,
		MarkerAllComplete,
		`"feat:"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "previous attempt") {
		t.Fatal("first attempt should not carry the retry note")
	}
}

func TestBuildPromptRetryNote(t *testing.T) {
	p := promptProject()
	prompt := BuildPrompt(PromptContext{
		Project:     p,
		Task:        p.TaskByID("TASK-102"),
		Attempt:     2,
		MaxAttempts: 3,
	})
	if !strings.Contains(prompt, "previous attempt") {
		t.Fatal("retry attempts should warn about prior state")
	}
	if !strings.Contains(prompt, "Attempt: 2 of 3") {
		t.Fatal("attempt count missing from prompt")
	}
}

func TestBuildPromptTruncatesHugeDescriptions(t *testing.T) {
	p := promptProject()
	task := p.TaskByID("TASK-102")
	task.Description = strings.Repeat("x", maxDescriptionChars+500)

	prompt := BuildPrompt(PromptContext{Project: p, Task: task, Attempt: 1})
	if !strings.Contains(prompt, "description truncated") {
		t.Fatal("oversized description should be truncated")
	}
	if len(prompt) > maxDescriptionChars+2000 {
		t.Fatalf("prompt not bounded: %d chars", len(prompt))
	}
}

func TestBuildPromptCustomInstructions(t *testing.T) {
	p := promptProject()
	prompt := BuildPrompt(PromptContext{
		Project:            p,
		Task:               p.TaskByID("TASK-102"),
		Attempt:            1,
		CustomInstructions: "Always use spaces, never tabs.",
	})
	if !strings.Contains(prompt, "Always use spaces, never tabs.") {
		t.Fatal("custom instructions not appended")
	}
}
