package executor

import (
	"fmt"
	"strings"

	"github.com/drover-cli/drover/pkg/models"
)

// maxDescriptionChars bounds the per-task description included in a prompt
// so a pathological plan file cannot blow up the instruction payload.
const maxDescriptionChars = 4000

// PromptContext carries everything the prompt builder needs for one
// iteration.
type PromptContext struct {
	Project            *models.Project
	Task               *models.Task
	Iteration          int
	Attempt            int
	MaxAttempts        int
	CustomInstructions string
	CommitPrefix       string
	UpdateSource       bool
}

// BuildPrompt assembles the bounded instruction payload for one iteration:
// current progress, the selected task, and the structured output markers the
// agent must emit.
func BuildPrompt(pctx PromptContext) string {
	var sb strings.Builder
	p, t := pctx.Project, pctx.Task

	sb.WriteString("You are executing one task of an automated implementation plan.\n\n")

	sb.WriteString("## Project Progress\n")
	fmt.Fprintf(&sb, "Project: %s\n", p.Name)
	fmt.Fprintf(&sb, "Tasks completed: %d of %d\n", p.CompletedTasks(), p.TotalTasks())
	fmt.Fprintf(&sb, "Iteration: %d\n\n", pctx.Iteration)

	sb.WriteString("## Your Task\n")
	fmt.Fprintf(&sb, "ID: %s\n", t.ID)
	fmt.Fprintf(&sb, "Name: %s\n", t.Name)
	if pctx.MaxAttempts > 0 {
		fmt.Fprintf(&sb, "Attempt: %d of %d\n", pctx.Attempt, pctx.MaxAttempts)
	}
	if desc := t.Description; desc != "" {
		if len(desc) > maxDescriptionChars {
			desc = desc[:maxDescriptionChars] + "\n... (description truncated)"
		}
		fmt.Fprintf(&sb, "Description: %s\n", desc)
	}
	sb.WriteString("\n")

	if pctx.Attempt > 1 {
		sb.WriteString("Note: a previous attempt at this task did not finish. ")
		sb.WriteString("Check what state it left behind before redoing work, and consider an alternative approach.\n\n")
	}

	sb.WriteString("## Instructions\n")
	sb.WriteString("1. Implement only this task. Do not start other tasks.\n")
	sb.WriteString("2. Verify your work compiles and existing tests still pass.\n")
	if pctx.CommitPrefix != "" {
		fmt.Fprintf(&sb, "3. Commit all changes with a message starting with %q.\n", pctx.CommitPrefix)
	} else {
		sb.WriteString("3. Do not commit; leave changes in the working tree.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Required Output Markers\n")
	sb.WriteString("When you finish, print exactly one of these lines on its own:\n")
	fmt.Fprintf(&sb, "- `%s %s` when this task is done\n", MarkerTaskComplete, t.ID)
	fmt.Fprintf(&sb, "- `%s %s <reason>` if you cannot proceed\n", MarkerTaskBlocked, t.ID)
	fmt.Fprintf(&sb, "- `%s %s <reason>` if the task is impossible as specified\n", MarkerTaskFailed, t.ID)
	fmt.Fprintf(&sb, "- `%s` if every task in the whole plan is already done\n", MarkerAllComplete)

	if pctx.CustomInstructions != "" {
		sb.WriteString("\n## Additional Instructions\n")
		sb.WriteString(pctx.CustomInstructions)
		sb.WriteString("\n")
	}

	return sb.String()
}
