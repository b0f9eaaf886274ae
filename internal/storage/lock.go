package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const lockFileName = "run.lock"

// RunLock guards a project's state directory against concurrent writers.
// The lock is a PID file created with O_EXCL; stale locks left by dead
// processes are detected and cleared automatically. Two invocations racing
// on the same identity is a misuse the store rejects with ErrLockHeld
// rather than risking interleaved writes.
type RunLock struct {
	path string
}

// NewRunLock creates a lock manager for the given project state directory.
func NewRunLock(projectDir string) *RunLock {
	return &RunLock{path: filepath.Join(projectDir, lockFileName)}
}

// Acquire attempts to take the lock, returning ErrLockHeld when a live
// process already owns it.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	if err := l.tryCreate(); err == nil {
		return nil
	} else if !os.IsExist(err) {
		return fmt.Errorf("creating lock file: %w", err)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Holder released between our create attempt and read.
			return l.retryOnce()
		}
		return fmt.Errorf("reading existing lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Garbage in the lock file, treat as stale.
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing invalid lock file: %w", err)
		}
		return l.retryOnce()
	}

	if processAlive(pid) {
		return fmt.Errorf("%w (pid %d)", ErrLockHeld, pid)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale lock file: %w", err)
	}
	return l.retryOnce()
}

// Release removes the lock file. Releasing an unheld lock is a no-op.
func (l *RunLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

func (l *RunLock) tryCreate() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, writeErr := fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()
	if writeErr != nil {
		os.Remove(l.path)
		return fmt.Errorf("writing lock file: %w", writeErr)
	}
	return nil
}

// retryOnce retries creation a single time after clearing a stale lock; a
// second collision means another process won the race.
func (l *RunLock) retryOnce() error {
	err := l.tryCreate()
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		return ErrLockHeld
	}
	return fmt.Errorf("creating lock file on retry: %w", err)
}

// processAlive checks for process existence with signal 0.
func processAlive(pid int) bool {
	if pid == os.Getpid() {
		return true
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
