package cli

import (
	"github.com/spf13/cobra"
)

var resumeSource sourceFlags

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted run",
	Long: `Resume the loop for a previously run prompt or plan.

Resume is run with a different name: identity resolution maps the same input
to the same persisted state, so both commands pick up exactly where the last
invocation stopped. It exists so scripts can make the intent explicit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd, &resumeSource)
	},
}

func init() {
	resumeSource.register(resumeCmd)
	rootCmd.AddCommand(resumeCmd)
}
