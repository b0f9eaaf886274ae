package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no state exists for an identity.
var ErrNotFound = errors.New("project state not found")

// ErrLockHeld is returned when another live process holds the run lock for
// the same identity. The invocation must stop; retrying later is up to the
// user.
var ErrLockHeld = errors.New("project state is locked by another process")

// CorruptStateError reports persisted state that cannot be parsed or fails
// schema-version validation. The store never deletes or overwrites the file;
// recovery requires an explicit reset.
type CorruptStateError struct {
	Identity string
	Path     string
	Reason   string
	Err      error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state for project %s at %s: %s", e.Identity, e.Path, e.Reason)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}
