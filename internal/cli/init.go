package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const configTemplate = `# drover configuration
agent:
  command: claude
  skip_permissions: true
  # model: claude-sonnet-4-5
  # aliases:
  #   - name: fast
  #     command: claude
  #     default_args: ["--model", "claude-haiku-4-5"]

execution:
  max_iterations: 50
  idle_timeout_seconds: 60
  sleep_between_seconds: 2
  stop_on_failure: false

retry:
  max_attempts: 3
  base_delay_seconds: 1
  max_delay_seconds: 60

git:
  auto_commit: true
  commit_prefix: "feat:"

sync:
  update_source: true
`

const planTemplate = `# Example Plan

## Phase 1: Setup

- [ ] TASK-101: Create the project skeleton
  Priority: high
  Description: Initialize the repository layout and build configuration.

- [ ] TASK-102: Add continuous integration
  Priority: medium
  Dependencies: TASK-101

## Phase 2: Features

- [ ] TASK-201: Implement the first feature
  Dependencies: TASK-101
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a starter .drover.yaml and example plan",
	Long: `Write a commented .drover.yaml and an example plan file into the given
directory (default: current directory). Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		out := cmd.OutOrStdout()
		wrote := 0
		for _, f := range []struct {
			name, content string
		}{
			{".drover.yaml", configTemplate},
			{filepath.Join("plans", "example.md"), planTemplate},
		} {
			path := filepath.Join(dir, f.name)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "Skipping %s: already exists\n", path)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
			}
			if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(out, "Created %s\n", path)
			wrote++
		}
		if wrote > 0 {
			fmt.Fprintln(out, "\nEdit plans/example.md, then: drover run --plans plans")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
