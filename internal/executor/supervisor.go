package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/integration"
	"github.com/drover-cli/drover/pkg/models"
)

// RunOutcome classifies a single agent run.
type RunOutcome int

const (
	// RunCompleted means the agent process exited zero.
	RunCompleted RunOutcome = iota
	// RunTimedOut means no output was observed for the idle timeout and the
	// process was terminated. Only silence triggers this; a long-running
	// agent that keeps producing output is never timed out.
	RunTimedOut
	// RunFailed means the process exited nonzero.
	RunFailed
)

// AgentResult captures one agent subprocess run.
type AgentResult struct {
	Outcome    RunOutcome
	ExitCode   int
	Transcript string
}

// IterationResult is the applied outcome of one iteration, after retries
// and classification.
type IterationResult struct {
	Outcome        models.IterationOutcome
	Classification Classification
	TranscriptTail string
	Attempts       int
	LastError      string
	// Exhausted is set when the retry cap was consumed by timeouts or
	// nonzero exits, as opposed to an ambiguous clean exit.
	Exhausted bool
}

// IterationRunner is the loop's view of the execution supervisor. The
// orchestration loop depends on this interface so it can be tested with a
// stub runner.
type IterationRunner interface {
	RunIteration(ctx context.Context, project *models.Project, task *models.Task, iteration int) (*IterationResult, error)
}

// CommandContext is the function used to create agent exec.Cmd instances.
// It can be replaced in tests to mock the agent.
var CommandContext = exec.CommandContext

// Supervisor drives the external agent through one iteration at a time:
// Building (prompt) -> Running (subprocess with idle timeout) -> Classified
// -> Applied, with exponential-backoff retries on timeout or failure.
type Supervisor struct {
	Cfg     *core.Config
	WorkDir string
	// Output receives the agent's output live. Nil disables forwarding;
	// the transcript is captured either way.
	Output io.Writer
}

// NewSupervisor creates a Supervisor for the given working directory.
func NewSupervisor(cfg *core.Config, workDir string, output io.Writer) *Supervisor {
	return &Supervisor{Cfg: cfg, WorkDir: workDir, Output: output}
}

func (s *Supervisor) policy() RetryPolicy {
	p := DefaultRetryPolicy()
	if s.Cfg.RetryAttempts > 0 {
		p.MaxAttempts = s.Cfg.RetryAttempts
	}
	if s.Cfg.RetryBaseDelay > 0 {
		p.BaseDelay = s.Cfg.RetryBaseDelay
	}
	if s.Cfg.RetryMaxDelay > 0 {
		p.MaxDelay = s.Cfg.RetryMaxDelay
	}
	return p
}

// RunIteration executes the selected task, retrying on timeout or nonzero
// exit up to the attempt cap. Only those two outcomes consume an attempt; a
// clean exit without a marker leaves the count untouched. Attempt counts
// carry over on the task across invocations, so a resumed project does not
// restart the budget. A non-nil error is fatal (the agent could not be
// started at all); exhausted retries are reported through the result instead
// so the loop can move on.
func (s *Supervisor) RunIteration(ctx context.Context, project *models.Project, task *models.Task, iteration int) (*IterationResult, error) {
	policy := s.policy()
	result := &IterationResult{Attempts: task.Attempts}

	for attempt := task.Attempts + 1; attempt <= policy.MaxAttempts; attempt++ {
		if delay := policy.Delay(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		prompt := BuildPrompt(PromptContext{
			Project:            project,
			Task:               task,
			Iteration:          iteration,
			Attempt:            attempt,
			MaxAttempts:        policy.MaxAttempts,
			CommitPrefix:       s.commitPrefix(),
			UpdateSource:       s.Cfg.UpdateSource,
			CustomInstructions: "",
		})

		agentResult, err := s.runAgent(ctx, prompt)
		if agentResult != nil {
			result.TranscriptTail = TranscriptTail(agentResult.Transcript, 2000)
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, err
		}

		switch agentResult.Outcome {
		case RunCompleted:
			result.Classification = Classify(agentResult.Transcript)
			if result.Classification.Kind == NoMarker {
				// Clean exit without a marker: ambiguous, not a failure.
				// Exit code alone decides, so the attempt is not counted.
				result.Outcome = models.OutcomeFailure
				result.LastError = "agent exited cleanly without a completion marker"
				return result, nil
			}
			task.Attempts = attempt
			result.Attempts = attempt
			result.Outcome = models.OutcomeSuccess
			return result, nil
		case RunTimedOut:
			task.Attempts = attempt
			result.Attempts = attempt
			result.LastError = fmt.Sprintf("agent idle for %s (attempt %d of %d)", s.Cfg.IdleTimeout, attempt, policy.MaxAttempts)
			result.Outcome = models.OutcomeTimeout
		case RunFailed:
			task.Attempts = attempt
			result.Attempts = attempt
			result.LastError = fmt.Sprintf("agent exited with code %d (attempt %d of %d)", agentResult.ExitCode, attempt, policy.MaxAttempts)
			result.Outcome = models.OutcomeFailure
		}
	}

	result.Exhausted = true
	if result.LastError == "" {
		// Entered with the cap already consumed, so the agent never ran.
		result.Outcome = models.OutcomeFailure
		result.LastError = fmt.Sprintf("retry cap of %d attempts already consumed", policy.MaxAttempts)
	}
	return result, nil
}

func (s *Supervisor) commitPrefix() string {
	if !s.Cfg.AutoCommit {
		return ""
	}
	return s.Cfg.CommitPrefix
}

// runAgent spawns one agent subprocess and supervises it: output is
// forwarded live, and silence longer than the idle timeout terminates the
// run. Cancellation terminates the subprocess within one check interval.
func (s *Supervisor) runAgent(ctx context.Context, prompt string) (*AgentResult, error) {
	spec := integration.ResolveAgent(s.Cfg.AgentCommand, configAliases(s.Cfg))

	args := append([]string{}, spec.DefaultArgs...)
	args = append(args, s.Cfg.AgentArgs...)
	if s.Cfg.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if s.Cfg.Model != "" {
		args = append(args, "--model", s.Cfg.Model)
	}
	args = append(args, "-p", prompt)

	var transcript bytes.Buffer
	sink := io.Writer(&transcript)
	if s.Output != nil {
		sink = io.MultiWriter(&transcript, s.Output)
	}
	activity := newActivityWriter(sink)

	cmd := CommandContext(ctx, spec.Command, args...)
	cmd.Dir = s.WorkDir
	cmd.Stdout = activity
	cmd.Stderr = activity

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting agent %s: %w", spec.Command, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	interval := s.Cfg.IdleTimeout / 4
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			result := &AgentResult{Transcript: transcript.String()}
			if err == nil {
				result.Outcome = RunCompleted
				return result, nil
			}
			if exitErr, ok := err.(*exec.ExitError); ok {
				result.Outcome = RunFailed
				result.ExitCode = exitErr.ExitCode()
				return result, nil
			}
			return result, fmt.Errorf("waiting for agent: %w", err)

		case <-ticker.C:
			if activity.idleFor() >= s.Cfg.IdleTimeout {
				_ = cmd.Process.Kill()
				<-done
				return &AgentResult{Outcome: RunTimedOut, Transcript: transcript.String()}, nil
			}

		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			return &AgentResult{Transcript: transcript.String()}, ctx.Err()
		}
	}
}

func configAliases(cfg *core.Config) []integration.AgentAlias {
	aliases := make([]integration.AgentAlias, len(cfg.Aliases))
	for i, a := range cfg.Aliases {
		aliases[i] = integration.AgentAlias{
			Name:        a.Name,
			Command:     a.Command,
			DefaultArgs: a.DefaultArgs,
		}
	}
	return aliases
}

// activityWriter forwards writes to a sink while recording the time of the
// last write, so the supervisor can detect silence.
type activityWriter struct {
	mu   sync.Mutex
	last time.Time
	sink io.Writer
}

func newActivityWriter(sink io.Writer) *activityWriter {
	return &activityWriter{last: time.Now(), sink: sink}
}

// Write is serialized because exec wires stdout and stderr to this writer
// from separate goroutines.
func (w *activityWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = time.Now()
	return w.sink.Write(p)
}

func (w *activityWriter) idleFor() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Since(w.last)
}
