package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetSource sourceFlags
	resetForce  bool
)

var resetCmd = &cobra.Command{
	Use:   "reset [identity]",
	Short: "Delete a project's persisted state",
	Long: `Delete all persisted state for a project: state file, summary, event log,
and any stale lock. The next run of the same input starts from scratch.

Requires --force; this cannot be undone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		identity, err := resolveTarget(args, &resetSource)
		if err != nil {
			return err
		}
		if !resetForce {
			return fmt.Errorf("refusing to delete state for %s without --force", identity)
		}
		if !Store.Exists(identity) {
			fmt.Fprintf(cmd.OutOrStdout(), "No state for %s; nothing to do.\n", identity)
			return nil
		}
		if err := Store.Reset(identity); err != nil {
			return fmt.Errorf("resetting project %s: %w", identity, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "State for %s deleted.\n", identity)
		return nil
	},
}

func init() {
	resetSource.register(resetCmd)
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Actually delete the state")
	rootCmd.AddCommand(resetCmd)
}
