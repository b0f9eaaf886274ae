package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drover-cli/drover/pkg/models"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	return dir
}

func TestIsRepo(t *testing.T) {
	repo := initRepo(t)
	if !NewGitHelper(repo).IsRepo() {
		t.Fatal("initialized directory should be a repo")
	}
	if NewGitHelper(t.TempDir()).IsRepo() {
		t.Fatal("bare temp directory should not be a repo")
	}
}

func TestCommitTask(t *testing.T) {
	repo := initRepo(t)
	helper := NewGitHelper(repo)
	task := &models.Task{ID: "TASK-101", Name: "add readme"}

	// Clean tree: commit is a no-op.
	if err := helper.CommitTask(task, "feat:"); err != nil {
		t.Fatalf("clean tree should be a no-op: %v", err)
	}

	if err := os.WriteFile(filepath.Join(repo, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !helper.HasChanges() {
		t.Fatal("untracked file should register as a change")
	}
	if err := helper.CommitTask(task, "feat:"); err != nil {
		t.Fatalf("committing: %v", err)
	}

	cmd := exec.Command("git", "log", "-1", "--pretty=%s")
	cmd.Dir = repo
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "feat: add readme" {
		t.Fatalf("unexpected commit message %q", got)
	}
	if helper.HasChanges() {
		t.Fatal("tree should be clean after commit")
	}
}

func TestCommitTaskWithoutPrefix(t *testing.T) {
	repo := initRepo(t)
	helper := NewGitHelper(repo)
	if err := os.WriteFile(filepath.Join(repo, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := helper.CommitTask(&models.Task{ID: "TASK-101", Name: "tweak"}, ""); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command("git", "log", "-1", "--pretty=%s")
	cmd.Dir = repo
	out, _ := cmd.CombinedOutput()
	if got := strings.TrimSpace(string(out)); got != "tweak" {
		t.Fatalf("unexpected commit message %q", got)
	}
}
