package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "drover",
	Short: "Drive an autonomous coding agent through a task backlog",
	Long: `Drover runs an external AI coding agent in a supervised loop: one task per
iteration, with idle-timeout supervision, retry with backoff, and durable
per-project state under ~/.drover (or $DROVER_HOME).

Feed it a prompt, a plan file, or a directory of plan files; interrupt it at
any point and rerun to resume exactly where it left off.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("drover %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
