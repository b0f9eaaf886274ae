package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"

	"github.com/drover-cli/drover/internal/core"
	"github.com/drover-cli/drover/internal/executor"
	"github.com/drover-cli/drover/internal/storage"
)

type staticConfigMgr struct{ cfg *core.Config }

func (m *staticConfigMgr) Load() (*core.Config, error) { return m.cfg, nil }
func (m *staticConfigMgr) Validate(*core.Config) error { return nil }

// A finished run must leave no lock file behind; recovery must not depend on
// stale-PID reclaim.
func TestExecuteRunReleasesLock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake agent uses /bin/sh")
	}
	origStore, origMgr := Store, ConfigMgr
	t.Cleanup(func() { Store, ConfigMgr = origStore, origMgr })
	Store = storage.NewStateStore(t.TempDir())

	cfg := core.DefaultConfig()
	cfg.MaxIterations = 1
	cfg.AutoCommit = false
	cfg.UpdateSource = false
	cfg.SleepBetween = 0
	ConfigMgr = &staticConfigMgr{cfg: cfg}

	origCmd := executor.CommandContext
	executor.CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/bin/sh", "-c", `echo "DROVER_ALL_COMPLETE"`)
	}
	t.Cleanup(func() { executor.CommandContext = origCmd })

	origWorkDir := runWorkDir
	runWorkDir = t.TempDir()
	t.Cleanup(func() { runWorkDir = origWorkDir })

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	source := &sourceFlags{prompt: "write the changelog"}
	code, err := executeRun(cmd, source)
	if err != nil {
		t.Fatalf("executeRun: %v", err)
	}
	if code != exitComplete {
		t.Fatalf("expected exit %d, got %d", exitComplete, code)
	}

	identity, err := core.ResolveIdentity(core.PromptSource("write the changelog"))
	if err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(Store.ProjectDir(identity), "run.lock")
	if _, statErr := os.Stat(lockPath); !os.IsNotExist(statErr) {
		t.Fatalf("run lock should be released after the run, stat: %v", statErr)
	}
}
