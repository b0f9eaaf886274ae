package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/core"
)

var validateSource sourceFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a plan without running it",
	Long: `Parse a prompt, plan file, or plan directory and check the task graph:
unique task ids, no self-dependencies, and whether any task is stranded by
an unresolvable or circular dependency. Nothing is executed or persisted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := validateSource.descriptor(); err != nil {
			return err
		}
		project, err := validateSource.parse()
		if err != nil {
			return err
		}
		if err := core.ValidateGraph(project); err != nil {
			return fmt.Errorf("invalid task graph: %w", err)
		}

		out := cmd.OutOrStdout()
		result := core.Evaluate(project)
		fmt.Fprintf(out, "%s: %d phase(s), %d task(s)\n", project.Name, len(project.Phases), project.TotalTasks())
		if result.Decision == core.DecisionBlocked {
			return fmt.Errorf("no runnable task: %d task(s) have unmet dependencies: %v", len(result.Stuck), result.Stuck)
		}
		if result.Task != nil {
			fmt.Fprintf(out, "First task: %s (%s)\n", result.Task.ID, result.Task.Name)
		}
		fmt.Fprintln(out, "Plan is valid.")
		return nil
	},
}

func init() {
	validateSource.register(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
