package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var projectsJSON bool

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List all known projects",
	Long: `List every project under the state root, most recently updated first,
with its identity, status, and progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("services not initialized")
		}
		entries, err := Store.List()
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		out := cmd.OutOrStdout()
		if projectsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}
		fmt.Fprintf(out, "%-18s %-12s %-22s %s\n", "IDENTITY", "STATUS", "PROGRESS", "NAME")
		for _, e := range entries {
			bar := progressBar(e.Summary.Progress, 10)
			fmt.Fprintf(out, "%-18s %-12s %s %d/%-6d %s\n",
				e.Identity, e.Summary.Status, bar,
				e.Summary.CompletedTasks, e.Summary.TotalTasks, e.Summary.Name)
		}
		return nil
	},
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "Emit JSON instead of a table")
	rootCmd.AddCommand(projectsCmd)
}
