package integration

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/drover-cli/drover/pkg/models"
)

// GitHelper runs git commands in a fixed working directory.
type GitHelper struct {
	workDir string
}

// NewGitHelper creates a GitHelper rooted at workDir.
func NewGitHelper(workDir string) *GitHelper {
	return &GitHelper{workDir: workDir}
}

func (g *GitHelper) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether the working directory is inside a git work tree.
func (g *GitHelper) IsRepo() bool {
	_, err := g.run("rev-parse", "--is-inside-work-tree")
	return err == nil
}

// HasChanges reports whether the work tree has staged, modified, or
// untracked files.
func (g *GitHelper) HasChanges() bool {
	out, err := g.run("status", "--porcelain")
	return err == nil && out != ""
}

// CommitTask stages everything and commits with a message built from the
// task and the configured prefix. A clean tree is a no-op: the agent may
// have already committed its own work.
func (g *GitHelper) CommitTask(task *models.Task, prefix string) error {
	if !g.IsRepo() || !g.HasChanges() {
		return nil
	}
	if _, err := g.run("add", "-A"); err != nil {
		return fmt.Errorf("staging changes for %s: %w", task.ID, err)
	}
	message := fmt.Sprintf("%s %s", prefix, task.Name)
	if prefix == "" {
		message = task.Name
	}
	if _, err := g.run("commit", "-m", message); err != nil {
		return fmt.Errorf("committing %s: %w", task.ID, err)
	}
	return nil
}
