package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/executor"
	"github.com/drover-cli/drover/internal/integration"
	"github.com/drover-cli/drover/internal/observability"
	"github.com/drover-cli/drover/internal/storage"
	"github.com/drover-cli/drover/pkg/models"
)

// Exit codes for run and resume.
const (
	exitComplete    = 0
	exitFatal       = 1
	exitBlocked     = 2
	exitAgentFailed = 3
)

// osExit is replaceable for tests.
var osExit = os.Exit

var (
	runSource        sourceFlags
	runMaxIterations int
	runAgent         string
	runModel         string
	runIdleTimeout   time.Duration
	runSleep         time.Duration
	runNoCommit      bool
	runStopOnFail    bool
	runWorkDir       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop against a prompt or plan",
	Long: `Run the orchestration loop for a prompt, plan file, or plan directory.

One eligible task is dispatched per iteration; the agent's output markers
decide whether the task completed, blocked, or failed. State is saved after
every change, so the run can be interrupted and picked up again with the
same input (or with the resume command).

Exit codes: 0 all tasks complete, 1 fatal error, 2 blocked, 3 a task failed
or the iteration cap was reached with work remaining.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd, &runSource)
	},
}

func init() {
	runSource.register(runCmd)
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Iteration cap for this invocation (0 uses config)")
	runCmd.Flags().StringVar(&runAgent, "agent", "", "Agent command or configured alias")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model name passed to the agent")
	runCmd.Flags().DurationVar(&runIdleTimeout, "idle-timeout", 0, "Kill the agent after this much output silence (0 uses config)")
	runCmd.Flags().DurationVar(&runSleep, "sleep", -1, "Pause between iterations (negative uses config)")
	runCmd.Flags().BoolVar(&runNoCommit, "no-commit", false, "Disable git commit after each completed task")
	runCmd.Flags().BoolVar(&runStopOnFail, "stop-on-failure", false, "Stop the loop when a task exhausts its retries")
	runCmd.Flags().StringVar(&runWorkDir, "dir", "", "Working directory for the agent (default: current directory)")
	rootCmd.AddCommand(runCmd)
}

// runLoop is the shared body of run and resume. The exit call happens here,
// after executeRun's deferred cleanup (lock release, event log close) has
// unwound.
func runLoop(cmd *cobra.Command, source *sourceFlags) error {
	code, err := executeRun(cmd, source)
	if err != nil {
		return err
	}
	osExit(code)
	return nil
}

func executeRun(cmd *cobra.Command, source *sourceFlags) (int, error) {
	if Store == nil || ConfigMgr == nil {
		return exitFatal, fmt.Errorf("services not initialized")
	}

	cfg, err := ConfigMgr.Load()
	if err != nil {
		return exitFatal, fmt.Errorf("loading configuration: %w", err)
	}
	applyRunOverrides(cfg)
	if err := ConfigMgr.Validate(cfg); err != nil {
		return exitFatal, fmt.Errorf("invalid configuration: %w", err)
	}

	workDir := runWorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return exitFatal, fmt.Errorf("getting working directory: %w", err)
		}
	}

	desc, err := source.descriptor()
	if err != nil {
		return exitFatal, err
	}
	identity, err := core.ResolveIdentity(desc)
	if err != nil {
		return exitFatal, err
	}
	parsed, err := source.parse()
	if err != nil {
		return exitFatal, err
	}
	parsed.SourceDescriptor = desc.String()

	projectDir := Store.ProjectDir(identity)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return exitFatal, fmt.Errorf("creating project directory: %w", err)
	}

	lock := storage.NewRunLock(projectDir)
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, storage.ErrLockHeld) {
			return exitFatal, fmt.Errorf("project %s: %w", identity, err)
		}
		return exitFatal, fmt.Errorf("acquiring run lock for %s: %w", identity, err)
	}
	defer func() { _ = lock.Release() }()

	project, err := loadOrCreate(identity, parsed)
	if err != nil {
		return exitFatal, err
	}

	events, err := observability.NewJSONLEventLog(filepath.Join(projectDir, "events.jsonl"))
	if err != nil {
		// Event recording is optional; the run proceeds without it.
		events = nil
	} else {
		defer func() { _ = events.Close() }()
	}

	var committer executor.TaskCommitter
	if cfg.AutoCommit {
		git := integration.NewGitHelper(workDir)
		if git.IsRepo() {
			committer = git
		}
	}

	orch := &executor.Orchestrator{
		Store:     Store,
		Identity:  identity,
		Runner:    executor.NewSupervisor(cfg, workDir, os.Stdout),
		Cfg:       cfg,
		Events:    events,
		Committer: committer,
		Out:       cmd.OutOrStdout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Project %s: %d task(s), %d completed\n",
		identity, project.TotalTasks(), project.CompletedTasks())

	status, err := orch.Run(ctx, project)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		if status == executor.LoopTaskFailed {
			return exitAgentFailed, nil
		}
		return exitFatal, nil
	}

	switch status {
	case executor.LoopCompleted:
		return exitComplete, nil
	case executor.LoopBlocked:
		return exitBlocked, nil
	case executor.LoopInterrupted:
		return exitFatal, nil
	default: // LoopMaxIterations, LoopTaskFailed
		return exitAgentFailed, nil
	}
}

// applyRunOverrides layers command-line flags over the loaded configuration.
func applyRunOverrides(cfg *core.Config) {
	if runMaxIterations > 0 {
		cfg.MaxIterations = runMaxIterations
	}
	if runAgent != "" {
		cfg.AgentCommand = runAgent
	}
	if runModel != "" {
		cfg.Model = runModel
	}
	if runIdleTimeout > 0 {
		cfg.IdleTimeout = runIdleTimeout
	}
	if runSleep >= 0 {
		cfg.SleepBetween = runSleep
	}
	if runNoCommit {
		cfg.AutoCommit = false
	}
	if runStopOnFail {
		cfg.StopOnFailure = true
	}
}

// loadOrCreate loads persisted state for the identity and reconciles it with
// the freshly parsed input, or starts from the parsed tree when no state
// exists. Corrupt state is fatal and never deleted.
func loadOrCreate(identity string, parsed *models.Project) (*models.Project, error) {
	if !Store.Exists(identity) {
		return parsed, nil
	}
	existing, err := Store.Load(identity)
	if err != nil {
		var corrupt *storage.CorruptStateError
		if errors.As(err, &corrupt) {
			return nil, fmt.Errorf("state for %s is unreadable; inspect or `drover reset` it: %w", identity, err)
		}
		return nil, fmt.Errorf("loading state for %s: %w", identity, err)
	}
	return core.MergeWithExisting(existing, parsed, time.Now().UTC()), nil
}
