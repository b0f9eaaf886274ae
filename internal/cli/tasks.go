package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/storage"
	"github.com/drover-cli/drover/pkg/models"
)

var (
	tasksSource sourceFlags
	tasksFilter string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [identity]",
	Short: "List a project's tasks",
	Long: `List every task in a project with its status, priority, and dependencies.

Optionally filter to a single status with --status (e.g. --status failed).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		if tasksFilter != "" && !models.ValidTaskStatuses[models.TaskStatus(tasksFilter)] {
			return fmt.Errorf("invalid status %q: must be one of pending, in_progress, completed, blocked, failed, skipped", tasksFilter)
		}

		identity, err := resolveTarget(args, &tasksSource)
		if err != nil {
			return err
		}
		project, err := Store.Load(identity)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no project with identity %s", identity)
			}
			return fmt.Errorf("loading project %s: %w", identity, err)
		}

		out := cmd.OutOrStdout()
		shown := 0
		for i := range project.Phases {
			phase := &project.Phases[i]
			printed := false
			for j := range phase.Tasks {
				t := &phase.Tasks[j]
				if tasksFilter != "" && string(t.Status) != tasksFilter {
					continue
				}
				if !printed {
					fmt.Fprintf(out, "== %s ==\n", phase.Name)
					printed = true
				}
				fmt.Fprintf(out, "  %s %-12s pri=%d %s\n", statusGlyph(t.Status), t.ID, t.Priority, t.Name)
				if len(t.Dependencies) > 0 {
					fmt.Fprintf(out, "      depends on: %v\n", t.Dependencies)
				}
				if t.LastError != "" {
					fmt.Fprintf(out, "      last error: %s\n", t.LastError)
				}
				shown++
			}
		}
		if shown == 0 {
			fmt.Fprintln(out, "No tasks found.")
		}
		return nil
	},
}

func init() {
	tasksSource.register(tasksCmd)
	tasksCmd.Flags().StringVar(&tasksFilter, "status", "", "Filter by status (pending, in_progress, completed, blocked, failed, skipped)")
	rootCmd.AddCommand(tasksCmd)
}
