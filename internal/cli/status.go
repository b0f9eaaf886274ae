package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/storage"
	"github.com/drover-cli/drover/pkg/models"
)

var (
	statusSource sourceFlags
	statusJSON   bool
)

// Shared status styling.
var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	completedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	inProgressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	blockedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	failedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

var statusCmd = &cobra.Command{
	Use:   "status [identity]",
	Short: "Show a project's progress summary",
	Long: `Show progress for one project: task counts, current task, iterations.

Identify the project either by its identity hash or by the same input flags
given to run. Use --json for machine-readable output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		identity, err := resolveTarget(args, &statusSource)
		if err != nil {
			return err
		}

		project, err := Store.Load(identity)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no project with identity %s; run it first", identity)
			}
			return fmt.Errorf("loading project %s: %w", identity, err)
		}

		if statusJSON {
			return printStatusJSON(cmd, identity, project)
		}
		printStatus(cmd, identity, project)
		return nil
	},
}

func printStatus(cmd *cobra.Command, identity string, project *models.Project) {
	out := cmd.OutOrStdout()
	summary := project.Summarize()

	fmt.Fprintln(out, statusTitleStyle.Render(summary.Name))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Identity:"), identity)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Status:  "), styleForProjectStatus(summary.Status).Render(string(summary.Status)))
	fmt.Fprintf(out, "%s %d/%d tasks (%.0f%%)\n", labelStyle.Render("Progress:"),
		summary.CompletedTasks, summary.TotalTasks, summary.Progress*100)
	if summary.CurrentTask != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Current: "), summary.CurrentTask)
	}
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Iterations:"), summary.Iterations)

	for i := range project.Phases {
		phase := &project.Phases[i]
		fmt.Fprintf(out, "\n%s (%d/%d)\n", statusTitleStyle.Render(phase.Name),
			phase.CompletedTasks(), len(phase.Tasks))
		for j := range phase.Tasks {
			t := &phase.Tasks[j]
			line := fmt.Sprintf("  %s %-12s %s", statusGlyph(t.Status), t.ID, t.Name)
			fmt.Fprintln(out, styleForTaskStatus(t.Status).Render(line))
		}
	}
}

func printStatusJSON(cmd *cobra.Command, identity string, project *models.Project) error {
	summary := project.Summarize()
	doc := map[string]any{
		"identity":        identity,
		"name":            summary.Name,
		"status":          summary.Status,
		"total_tasks":     summary.TotalTasks,
		"completed_tasks": summary.CompletedTasks,
		"progress":        summary.Progress,
		"current_task":    summary.CurrentTask,
		"iterations":      summary.Iterations,
		"updated_at":      summary.UpdatedAt,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func statusGlyph(status models.TaskStatus) string {
	switch status {
	case models.StatusCompleted:
		return "[x]"
	case models.StatusInProgress:
		return "[>]"
	case models.StatusBlocked:
		return "[!]"
	case models.StatusFailed:
		return "[✗]"
	case models.StatusSkipped:
		return "[-]"
	default:
		return "[ ]"
	}
}

func styleForTaskStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusCompleted:
		return completedStyle
	case models.StatusInProgress:
		return inProgressStyle
	case models.StatusBlocked:
		return blockedStyle
	case models.StatusFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}

func styleForProjectStatus(status models.ProjectStatus) lipgloss.Style {
	switch status {
	case models.ProjectCompleted:
		return completedStyle
	case models.ProjectInProgress:
		return inProgressStyle
	case models.ProjectBlocked:
		return blockedStyle
	default:
		return pendingStyle
	}
}

// progressBar renders a fixed-width completion bar for list views.
func progressBar(progress float64, width int) string {
	if width < 2 {
		width = 2
	}
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func init() {
	statusSource.register(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit JSON instead of styled text")
	rootCmd.AddCommand(statusCmd)
}
