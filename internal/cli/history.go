package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/storage"
)

var (
	historySource sourceFlags
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history [identity]",
	Short: "Show a project's iteration history",
	Long: `Show the recorded iterations for a project: when each ran, its outcome,
and which tasks it completed. Most recent iterations are shown last.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		identity, err := resolveTarget(args, &historySource)
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
		iterations := project.Iterations
		if len(iterations) == 0 {
			fmt.Fprintln(out, "No iterations recorded.")
			return nil
		}
		if historyLimit > 0 && len(iterations) > historyLimit {
			iterations = iterations[len(iterations)-historyLimit:]
		}

		for i := range iterations {
			it := &iterations[i]
			line := fmt.Sprintf("#%-4d %s", it.Number, it.StartedAt.Local().Format(time.DateTime))
			if it.EndedAt != nil {
				line += fmt.Sprintf("  %-8s %s", it.Outcome, it.Duration().Round(time.Second))
			} else {
				line += "  (in progress or interrupted)"
			}
			fmt.Fprintln(out, line)
			for _, id := range it.TasksCompleted {
				fmt.Fprintf(out, "      completed %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	historySource.register(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N iterations (0 shows all)")
	rootCmd.AddCommand(historyCmd)
}
